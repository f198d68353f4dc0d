// Package program loads G-code programs and plays their toolpaths back
// on a machine.
package program

import (
	"math"
	"sync"
	"time"

	"github.com/mastercactapus/gcsim/gcode"
	"github.com/mastercactapus/gcsim/machine"
	"github.com/mastercactapus/gcsim/vm"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultRapidRate is the speed of rapid moves in mm/min.
	DefaultRapidRate = 25400

	MinPlaybackSpeed = 0.1
	MaxPlaybackSpeed = 10.0
)

// A Renderer displays the toolpath and playback progress.
type Renderer interface {
	SetToolpath(segments []vm.Segment)
	SetCurrentSegment(index int)
}

// A Leveler rewrites a toolpath after interpretation, e.g. to follow a
// probed surface.
type Leveler interface {
	Level(path []vm.Segment) []vm.Segment
}

// LoadedProgram is everything known about the current program. It is
// replaced as a whole on every load.
type LoadedProgram struct {
	Text     string
	Commands gcode.Program
	Toolpath []vm.Segment
	Stats    gcode.Statistics
	Warnings []gcode.Warning

	// Errors are commands that could not be executed.
	Errors []*vm.CommandError
}

type LoadResult struct {
	Success bool `json:"success"`

	// Errors is set when the text failed to parse; nothing was loaded.
	Errors []gcode.ParseError `json:"errors,omitempty"`

	Stats         gcode.Statistics   `json:"stats"`
	Warnings      []gcode.Warning    `json:"warnings"`
	RuntimeErrors []*vm.CommandError `json:"runtimeErrors,omitempty"`
	SegmentCount  int                `json:"segmentCount"`
}

type Info struct {
	Stats          gcode.Statistics `json:"stats"`
	Warnings       []gcode.Warning  `json:"warnings"`
	TotalSegments  int              `json:"totalSegments"`
	CurrentSegment int              `json:"currentSegment"`
	Progress       float64          `json:"progress"`
	IsRunning      bool             `json:"isRunning"`
	IsPaused       bool             `json:"isPaused"`
	State          PlaybackState    `json:"state"`
	PlaybackSpeed  float64          `json:"playbackSpeed"`
}

// Sequencer owns one loaded program and its playback. It is safe for
// concurrent use.
type Sequencer struct {
	log       logrus.FieldLogger
	machine   machine.Adapter
	renderer  Renderer
	leveler   Leveler
	rapidRate float64

	mx      sync.Mutex
	interp  *vm.Interpreter
	player  *player
	prog    *LoadedProgram
	state   PlaybackState
	cursor  int
	speed   float64
	elapsed time.Duration // spent on the segment at cursor
}

type Option func(*Sequencer)

func WithMachine(m machine.Adapter) Option { return func(s *Sequencer) { s.machine = m } }
func WithRenderer(r Renderer) Option       { return func(s *Sequencer) { s.renderer = r } }
func WithLeveler(l Leveler) Option         { return func(s *Sequencer) { s.leveler = l } }
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Sequencer) { s.log = l }
}

// WithRapidRate sets the rapid speed in mm/min used to time playback.
func WithRapidRate(mmPerMin float64) Option {
	return func(s *Sequencer) {
		if mmPerMin > 0 {
			s.rapidRate = mmPerMin
		}
	}
}

func New(opts ...Option) *Sequencer {
	s := &Sequencer{
		log:       logrus.StandardLogger(),
		rapidRate: DefaultRapidRate,
		speed:     1,
	}
	for _, o := range opts {
		o(s)
	}
	s.interp = vm.New(vm.WithLogger(s.log))
	s.player = &player{m: s.machine, log: s.log}
	return s
}

// Load parses and interprets text. If any line fails to parse nothing is
// loaded and the current program is kept.
func (s *Sequencer) Load(text string) LoadResult {
	res := gcode.Parse(text)
	if !res.Success() {
		for _, e := range res.Errors {
			s.log.WithField("line", e.Line).Error(e.Message)
		}
		return LoadResult{Success: false, Errors: res.Errors}
	}

	warnings := res.Commands.Validate()
	for _, w := range warnings {
		s.log.WithField("line", w.Line).Warn(w.Message)
	}
	stats := res.Commands.Statistics()

	s.mx.Lock()
	defer s.mx.Unlock()

	s.interp.Reset()
	toolpath, errs := s.interp.Execute(res.Commands)
	if s.leveler != nil {
		toolpath = s.leveler.Level(toolpath)
	}

	s.prog = &LoadedProgram{
		Text:     text,
		Commands: res.Commands,
		Toolpath: toolpath,
		Stats:    stats,
		Warnings: warnings,
		Errors:   errs,
	}
	s.state = StateIdle
	s.cursor = 0
	s.elapsed = 0
	if s.renderer != nil {
		s.renderer.SetToolpath(toolpath)
	}

	s.log.WithFields(logrus.Fields{
		"segments": len(toolpath),
		"commands": len(res.Commands),
	}).Info("program loaded")

	return LoadResult{
		Success:       true,
		Stats:         stats,
		Warnings:      warnings,
		RuntimeErrors: errs,
		SegmentCount:  len(toolpath),
	}
}

// LoadSample loads a built-in program by name.
func (s *Sequencer) LoadSample(name string) LoadResult {
	return s.Load(Sample(name))
}

// Start begins playback from the first segment.
func (s *Sequencer) Start() bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.prog == nil {
		s.log.Error("no program loaded")
		return false
	}
	s.state = StateRunning
	s.cursor = 0
	s.elapsed = 0
	s.player.reset()
	s.log.Info("program started")
	return true
}

// Pause holds a running program without losing its place.
func (s *Sequencer) Pause() bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.state != StateRunning {
		return false
	}
	s.state = StatePaused
	s.log.Info("program paused")
	return true
}

func (s *Sequencer) Resume() bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.state != StatePaused {
		return false
	}
	s.state = StateRunning
	s.log.Info("program resumed")
	return true
}

// Stop ends playback, rewinds, and stops the spindle.
func (s *Sequencer) Stop() bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.prog == nil {
		return false
	}
	s.stop()
	return true
}

func (s *Sequencer) stop() {
	s.state = StateStopped
	s.cursor = 0
	s.elapsed = 0
	if s.machine != nil {
		if err := s.machine.StopSpindle(); err != nil {
			s.log.WithError(err).Error("stop spindle")
		}
	}
	s.player.reset()
	s.log.Info("program stopped")
}

// StepForward runs the segment at the cursor and advances past it. Past
// the last segment it stops the program and returns false.
func (s *Sequencer) StepForward() bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.prog == nil {
		return false
	}
	return s.step()
}

func (s *Sequencer) step() bool {
	if s.cursor >= len(s.prog.Toolpath) {
		s.log.Info("end of program")
		s.stop()
		return false
	}

	seg := s.prog.Toolpath[s.cursor]
	log := s.log.WithFields(logrus.Fields{"segment": s.cursor, "line": seg.Line})
	log.Debugf("executing %s", seg.Type)
	if err := s.player.apply(seg); err != nil {
		log.WithError(err).Warn("machine")
	}
	s.cursor++
	s.elapsed = 0
	if s.renderer != nil {
		s.renderer.SetCurrentSegment(s.cursor - 1)
	}
	return true
}

// StepBackward moves the cursor back one segment. The machine does not move.
func (s *Sequencer) StepBackward() bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.prog == nil || s.cursor == 0 {
		return false
	}
	s.cursor--
	s.elapsed = 0
	if s.renderer != nil {
		s.renderer.SetCurrentSegment(s.cursor)
	}
	return true
}

// Info describes the loaded program; ok is false if there is none.
func (s *Sequencer) Info() (info Info, ok bool) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.prog == nil {
		return Info{}, false
	}
	info = Info{
		Stats:          s.prog.Stats,
		Warnings:       s.prog.Warnings,
		TotalSegments:  len(s.prog.Toolpath),
		CurrentSegment: s.cursor,
		IsRunning:      s.state == StateRunning || s.state == StatePaused,
		IsPaused:       s.state == StatePaused,
		State:          s.state,
		PlaybackSpeed:  s.speed,
	}
	if info.TotalSegments > 0 {
		info.Progress = float64(s.cursor) / float64(info.TotalSegments)
	}
	return info, true
}

// SetPlaybackSpeed clamps speed to [0.1, 10] and returns the value used.
func (s *Sequencer) SetPlaybackSpeed(speed float64) float64 {
	s.mx.Lock()
	defer s.mx.Unlock()
	if !math.IsNaN(speed) {
		s.speed = math.Max(MinPlaybackSpeed, math.Min(speed, MaxPlaybackSpeed))
	}
	return s.speed
}

func (s *Sequencer) duration(seg vm.Segment) time.Duration {
	feed := seg.Feedrate
	if seg.Type == vm.SegmentRapid || feed <= 0 {
		feed = s.rapidRate
	}
	return time.Duration(seg.Length() / feed * float64(time.Minute))
}

// Duration estimates how long the loaded program takes at playback
// speed 1.
func (s *Sequencer) Duration() time.Duration {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.prog == nil {
		return 0
	}
	var d time.Duration
	for _, seg := range s.prog.Toolpath {
		d += s.duration(seg)
	}
	return d
}

// Update advances a running program by delta of wall time, scaled by the
// playback speed. Each segment takes its length over its feedrate; every
// segment that finishes is stepped, in order.
func (s *Sequencer) Update(delta time.Duration) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.prog == nil || s.state != StateRunning || delta <= 0 {
		return
	}

	budget := time.Duration(float64(delta) * s.speed)
	for s.state == StateRunning {
		if s.cursor >= len(s.prog.Toolpath) {
			s.step()
			return
		}
		need := s.duration(s.prog.Toolpath[s.cursor]) - s.elapsed
		if budget < need {
			s.elapsed += budget
			return
		}
		budget -= need
		s.step()
	}
}

// Toolpath returns the loaded toolpath.
func (s *Sequencer) Toolpath() []vm.Segment {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.prog == nil {
		return nil
	}
	return s.prog.Toolpath
}

// Program returns the loaded program, or nil.
func (s *Sequencer) Program() *LoadedProgram {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.prog
}

func (s *Sequencer) State() PlaybackState {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.state
}

// ModalState is the interpreter state at the end of the loaded program.
func (s *Sequencer) ModalState() vm.State {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.interp.State()
}
