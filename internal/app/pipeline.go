package app

import (
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handcam/internal/overlay"
	"github.com/ayusman/handcam/internal/recognizer"
)

// runPipeline is the render loop. Once per tick it:
// 1. Reads a frame from the camera
// 2. Re-runs recognition only when the frame changed, otherwise reuses the last result
// 3. Renders frame, shade, landmarks and labels onto the surface
// 4. Publishes the JPEG-encoded surface to frame subscribers
func (a *App) runPipeline(surface *overlay.MatSurface, rec recognizer.Recognizer, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	defer surface.Close()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	var last *recognizer.Result
	lastGesture := ""

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			last = a.processFrame(frame, surface, rec, last)
			frame.Close()

			if name := topGestureName(last); name != lastGesture {
				lastGesture = name
				a.notifyGesture(name)
			}

			data, err := surface.Encode()
			if err != nil {
				log.Printf("Error encoding frame: %v", err)
				continue
			}
			a.frames.Publish(data)
		}
	}
}

// processFrame renders one frame and returns the recognition result to
// reuse for the next frame.
func (a *App) processFrame(frame *gocv.Mat, surface overlay.Surface, rec recognizer.Recognizer, last *recognizer.Result) *recognizer.Result {
	if changed, _ := a.change.Changed(frame); changed || last == nil {
		result, err := rec.Recognize(frame, time.Now().UnixMilli())
		if err != nil {
			log.Printf("Error recognizing gestures: %v", err)
		} else {
			last = result
		}
	}

	overlay.Render(surface, frame, last, a.controller.State())
	return last
}

func (a *App) notifyGesture(name string) {
	a.mu.Lock()
	a.gesture = name
	fn := a.onGesture
	a.mu.Unlock()

	if fn != nil {
		fn(name)
	}
}

func topGestureName(r *recognizer.Result) string {
	gesture, _, ok := r.TopGesture()
	if !ok {
		return ""
	}
	return gesture.Name
}
