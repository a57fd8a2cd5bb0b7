package web

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cjeanneret/TurnGo/internal/hw/camera"
	"github.com/cjeanneret/TurnGo/internal/logic/pipeline"
	"github.com/cjeanneret/TurnGo/internal/logic/stepping"
	"github.com/cjeanneret/TurnGo/internal/logic/worker"
)

// manualSeqBase keeps manually triggered captures out of the sequence
// number range used by stepping jobs.
const manualSeqBase = 1 << 30

// FormConfig holds default values for the sequence form (from config).
type FormConfig struct {
	RotationSteps int     `json:"rotation_steps"`
	TiltLowerDeg  float64 `json:"tilt_lower_deg"`
	TiltUpperDeg  float64 `json:"tilt_upper_deg"`
	TiltSteps     int     `json:"tilt_steps"`
	ExtraDelayMs  int     `json:"extra_delay_ms"`
	ExportDir     string  `json:"export_dir"`
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster  *EventBroadcaster
	TableCmds    chan<- worker.TableCommand
	CameraCmds   chan<- worker.CameraCommand
	ExportJobs   chan<- pipeline.ExportJob
	Session      *Session
	Previews     *PreviewStore
	FormDefaults FormConfig

	manualSeq atomic.Uint32
	staticFS  fs.FS
}

// NewHandlers creates handlers with the given dependencies.
func NewHandlers(broadcaster *EventBroadcaster, tableCmds chan<- worker.TableCommand, cameraCmds chan<- worker.CameraCommand,
	exportJobs chan<- pipeline.ExportJob, session *Session, previews *PreviewStore, formDefaults FormConfig, staticFS fs.FS) *Handlers {
	h := &Handlers{
		Broadcaster:  broadcaster,
		TableCmds:    tableCmds,
		CameraCmds:   cameraCmds,
		ExportJobs:   exportJobs,
		Session:      session,
		Previews:     previews,
		FormDefaults: formDefaults,
		staticFS:     staticFS,
	}
	h.manualSeq.Store(manualSeqBase)
	return h
}

// HandleConfig returns the form default values (from config) as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.FormDefaults)
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func accepted(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

// HandleTableCommand enqueues a parameterless turntable command.
func (h *Handlers) HandleTableCommand(kind worker.TableCommandKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.TableCmds <- worker.TableCommand{Kind: kind}
		accepted(w)
	}
}

// stepRequest is the POST /table/step body.
type stepRequest struct {
	RotationSteps int     `json:"rotation_steps"`
	TiltLowerDeg  float64 `json:"tilt_lower_deg"`
	TiltUpperDeg  float64 `json:"tilt_upper_deg"`
	TiltSteps     int     `json:"tilt_steps"`
	ExtraDelayMs  int     `json:"extra_delay_ms"`
}

// HandleStep handles POST /table/step to start a stepping sequence.
func (h *Handlers) HandleStep(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	job := stepping.Job{
		RotationStepCount: req.RotationSteps,
		TiltLowerDeg:      req.TiltLowerDeg,
		TiltUpperDeg:      req.TiltUpperDeg,
		TiltStepCount:     req.TiltSteps,
		ExtraDelay:        time.Duration(req.ExtraDelayMs) * time.Millisecond,
	}
	if err := job.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.Session.Reset()
	h.TableCmds <- worker.TableCommand{Kind: worker.TableCmdStep, Job: job}
	accepted(w)
}

// HandleCameraList handles POST /camera/list.
func (h *Handlers) HandleCameraList(w http.ResponseWriter, r *http.Request) {
	h.CameraCmds <- worker.CameraCommand{Kind: worker.CameraCmdList}
	accepted(w)
}

// cameraConnectRequest is the POST /camera/connect body.
type cameraConnectRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HandleCameraConnect handles POST /camera/connect.
func (h *Handlers) HandleCameraConnect(w http.ResponseWriter, r *http.Request) {
	var req cameraConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	h.CameraCmds <- worker.CameraCommand{
		Kind: worker.CameraCmdConnect,
		Spec: camera.Spec{ID: req.ID, Name: req.Name},
	}
	accepted(w)
}

// HandleCameraCapture handles POST /camera/capture for a manual,
// out-of-band capture.
func (h *Handlers) HandleCameraCapture(w http.ResponseWriter, r *http.Request) {
	seq := h.manualSeq.Add(1)
	h.CameraCmds <- worker.CameraCommand{
		Kind:       worker.CameraCmdCapture,
		Seq:        seq,
		ExtraDelay: time.Duration(h.FormDefaults.ExtraDelayMs) * time.Millisecond,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{"status": "accepted", "seq": seq})
}

// exportRequest is the POST /export body.
type exportRequest struct {
	Directory string `json:"directory"`
}

// HandleExport handles POST /export: every captured image of the current
// session is queued for the export pool.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	dir := req.Directory
	if dir == "" {
		dir = h.FormDefaults.ExportDir
	}
	if dir == "" {
		http.Error(w, "directory is required", http.StatusBadRequest)
		return
	}

	handles := h.Session.Handles()
	for _, handle := range handles {
		h.ExportJobs <- pipeline.ExportJob{
			SourcePath: handle.Path,
			Seq:        handle.Seq,
			OutputDir:  dir,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{"status": "accepted", "queued": len(handles)})
}

// HandlePreview handles GET /previews/{seq}, serving the thumbnail JPEG.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseUint(r.PathValue("seq"), 10, 32)
	if err != nil {
		http.Error(w, "invalid sequence number", http.StatusBadRequest)
		return
	}
	data, ok := h.Previews.Get(uint32(seq))
	if !ok {
		http.Error(w, "no preview for this sequence number", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}

// HandleEvents handles GET /events for SSE.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// WatchTableStates forwards turntable state snapshots to SSE clients.
// Runs until the subscription channel closes.
func (h *Handlers) WatchTableStates(ch <-chan worker.TableState) {
	for st := range ch {
		payload := map[string]interface{}{"phase": st.Phase.String()}
		if st.HasStepping {
			payload["overall_step"] = st.Stepping.OverallStep()
			payload["total_steps"] = st.Stepping.Job.TotalSteps()
			payload["progress"] = st.Stepping.Progress()
		}
		h.Broadcaster.Broadcast(Event{Kind: "table_state", Payload: payload})
	}
}

// WatchCameraStates forwards camera state snapshots to SSE clients.
func (h *Handlers) WatchCameraStates(ch <-chan worker.CameraState) {
	for st := range ch {
		payload := map[string]interface{}{"phase": st.Phase.String()}
		if st.HasSeq {
			payload["seq"] = st.Seq
		}
		if len(st.Cameras) > 0 {
			cams := make([]map[string]string, 0, len(st.Cameras))
			for _, c := range st.Cameras {
				cams = append(cams, map[string]string{"id": c.ID, "name": c.Name})
			}
			payload["cameras"] = cams
		}
		h.Broadcaster.Broadcast(Event{Kind: "camera_state", Payload: payload})
	}
}

// WatchPreviews stores thumbnails and announces them to SSE clients.
func (h *Handlers) WatchPreviews(ch <-chan pipeline.Preview) {
	for p := range ch {
		if err := h.Previews.Put(p.Seq, p.Thumb); err != nil {
			h.Broadcaster.BroadcastLog("error", err.Error())
			continue
		}
		h.Broadcaster.Broadcast(Event{Kind: "preview", Payload: map[string]interface{}{
			"seq": p.Seq,
			"url": fmt.Sprintf("/previews/%d", p.Seq),
		}})
	}
}

// WatchImages records captured handles in the session and forwards them
// to the preview pool intake.
func (h *Handlers) WatchImages(images <-chan worker.ImageHandle, previewIntake chan<- worker.ImageHandle) {
	for handle := range images {
		h.Session.Add(handle)
		previewIntake <- handle
	}
	close(previewIntake)
}
