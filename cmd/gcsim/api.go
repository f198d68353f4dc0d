package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/mastercactapus/gcsim/coord"
	"github.com/mastercactapus/gcsim/machine"
	"github.com/mastercactapus/gcsim/program"
	"github.com/mastercactapus/gcsim/vm"
	"github.com/sirupsen/logrus"
)

type api struct {
	http.Handler
	seq     *program.Sequencer
	m       machine.Adapter
	dataDir string
	log     logrus.FieldLogger
}

func newAPI(seq *program.Sequencer, m machine.Adapter, dir string, events http.Handler, log logrus.FieldLogger) *api {
	r := mux.NewRouter()

	a := &api{
		Handler: r,
		seq:     seq,
		m:       m,
		dataDir: dir,
		log:     log,
	}

	fs := http.StripPrefix("/data", http.FileServer(http.Dir(dir)))
	r.PathPrefix("/data/").Methods("GET", "HEAD").Handler(fs)
	r.PathPrefix("/data/").Methods("PUT").HandlerFunc(a.putFile)
	r.PathPrefix("/data/").Methods("DELETE").HandlerFunc(a.deleteFile)

	r.HandleFunc("/api/program", a.programInfo).Methods("GET")
	r.HandleFunc("/api/program", a.loadProgram).Methods("POST")
	r.HandleFunc("/api/program/file/{name:.+}", a.loadFile).Methods("POST")
	r.HandleFunc("/api/program/sample/{name}", a.loadSample).Methods("POST")
	r.HandleFunc("/api/samples", a.samples).Methods("GET")
	r.HandleFunc("/api/toolpath", a.toolpath).Methods("GET")
	r.HandleFunc("/api/state", a.modalState).Methods("GET")
	r.HandleFunc("/api/{action:start|pause|resume|stop|step|back}", a.control).Methods("POST")
	r.HandleFunc("/api/speed", a.speed).Methods("POST")
	r.HandleFunc("/api/position", a.position).Methods("GET")

	if events != nil {
		r.PathPrefix("/events/").Handler(events)
	}

	return a
}

func safePath(base, name string) (bool, string) {
	if filepath.Separator != '/' && strings.ContainsRune(name, filepath.Separator) {
		return false, ""
	}
	dir := base
	if dir == "" {
		dir = "."
	}
	return true, filepath.Join(dir, filepath.FromSlash(path.Clean("/"+name)))
}

func (a *api) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.WithError(err).Error("encode response")
	}
}

func (a *api) writeLoad(w http.ResponseWriter, res program.LoadResult) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	a.writeJSON(w, status, res)
}

func (a *api) loadProgram(w http.ResponseWriter, req *http.Request) {
	data, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.writeLoad(w, a.seq.Load(string(data)))
}

func (a *api) loadFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, mux.Vars(req)["name"])
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	data, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		http.NotFound(w, req)
		return
	}
	if err != nil {
		a.log.WithError(err).WithField("file", name).Error("read program")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	a.writeLoad(w, a.seq.Load(string(data)))
}

func (a *api) loadSample(w http.ResponseWriter, req *http.Request) {
	a.writeLoad(w, a.seq.LoadSample(mux.Vars(req)["name"]))
}

func (a *api) samples(w http.ResponseWriter, req *http.Request) {
	a.writeJSON(w, http.StatusOK, program.SampleNames())
}

func (a *api) programInfo(w http.ResponseWriter, req *http.Request) {
	info, ok := a.seq.Info()
	if !ok {
		http.Error(w, "no program loaded", http.StatusNotFound)
		return
	}
	a.writeJSON(w, http.StatusOK, info)
}

// modalState returns the interpreter state at the end of the program.
func (a *api) modalState(w http.ResponseWriter, req *http.Request) {
	if a.seq.Program() == nil {
		http.Error(w, "no program loaded", http.StatusNotFound)
		return
	}
	a.writeJSON(w, http.StatusOK, a.seq.ModalState())
}

type toolpathSegment struct {
	vm.Segment
	Points []coord.Point `json:"points,omitempty"`
}

// toolpath returns the loaded toolpath. With ?interpolate=MM every
// segment also carries the polyline the tool follows, arcs split into
// chords of at most MM.
func (a *api) toolpath(w http.ResponseWriter, req *http.Request) {
	var maxLen float64
	if s := req.FormValue("interpolate"); s != "" {
		var err error
		maxLen, err = strconv.ParseFloat(s, 64)
		if err != nil || !(maxLen >= coord.MinResolution) {
			http.Error(w, fmt.Sprintf("interpolate must be a number of at least %g", coord.MinResolution), http.StatusBadRequest)
			return
		}
	}

	segs := a.seq.Toolpath()
	res := make([]toolpathSegment, len(segs))
	for i, s := range segs {
		res[i].Segment = s
		if maxLen == 0 {
			continue
		}
		pts, err := vm.Interpolate(s, maxLen)
		if err != nil {
			a.log.WithError(err).WithField("line", s.Line).Debug("interpolate")
			continue
		}
		res[i].Points = pts
	}
	a.writeJSON(w, http.StatusOK, res)
}

func (a *api) control(w http.ResponseWriter, req *http.Request) {
	var ok bool
	switch mux.Vars(req)["action"] {
	case "start":
		ok = a.seq.Start()
	case "pause":
		ok = a.seq.Pause()
	case "resume":
		ok = a.seq.Resume()
	case "stop":
		ok = a.seq.Stop()
	case "step":
		ok = a.seq.StepForward()
	case "back":
		ok = a.seq.StepBackward()
	}
	status := http.StatusOK
	if !ok {
		status = http.StatusConflict
	}
	a.writeJSON(w, status, map[string]bool{"ok": ok})
}

func (a *api) speed(w http.ResponseWriter, req *http.Request) {
	v, err := strconv.ParseFloat(req.FormValue("value"), 64)
	if err != nil {
		http.Error(w, "value must be a number", http.StatusBadRequest)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]float64{"speed": a.seq.SetPlaybackSpeed(v)})
}

func (a *api) position(w http.ResponseWriter, req *http.Request) {
	a.writeJSON(w, http.StatusOK, machine.Snapshot(a.m))
}

func (a *api) putFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, strings.TrimPrefix(req.URL.Path, "/data"))
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	os.MkdirAll(filepath.Dir(name), 0755)
	f, err := os.Create(name)
	if err != nil {
		a.log.WithError(err).WithField("file", name).Error("create")
		http.Error(w, err.Error(), 500)
		return
	}
	defer f.Close()
	_, err = io.Copy(f, req.Body)
	if err != nil {
		a.log.WithError(err).WithField("file", name).Error("write")
		http.Error(w, err.Error(), 500)
		return
	}
}

func (a *api) deleteFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, strings.TrimPrefix(req.URL.Path, "/data"))
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	err := os.Remove(name)
	if errors.Is(err, os.ErrNotExist) {
		http.NotFound(w, req)
		return
	}
	if err != nil {
		a.log.WithError(err).WithField("file", name).Error("delete")
		http.Error(w, err.Error(), 500)
		return
	}
}
