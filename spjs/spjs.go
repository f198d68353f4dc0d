// Package spjs is a client for serial-port-json-server, a websocket
// bridge to serial ports on another host.
package spjs

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type SPJS struct {
	url string
	log logrus.FieldLogger

	mx    sync.RWMutex
	ports map[string]*Port

	outgoing chan message
	incoming chan interface{}
	closeCh  chan struct{}
	closed   sync.Once

	lastID int64
}

type message struct {
	done    chan struct{}
	payload []byte
}

type DataFrame struct {
	Port string `json:"P"`
	Data string `json:"D"`
}
type CmdStatus struct {
	Cmd        string
	QueueCount int `json:"QCnt"`
	Type       []string
	Data       []string `json:"D"`
	ID         string   `json:"Id"`
}

type ErrorMessage struct {
	Error string
}
type SerialPortList struct {
	SerialPorts []SerialPort
}
type SerialPort struct {
	Name            string
	Friendly        string
	IsOpen          bool
	Baud            int
	BufferAlgorithm string
}

// New connects to the server at url, reconnecting as needed.
func New(url string, log logrus.FieldLogger) *SPJS {
	if log == nil {
		log = logrus.StandardLogger()
	}
	sp := &SPJS{
		url:      url,
		log:      log.WithField("spjs", url),
		ports:    make(map[string]*Port),
		outgoing: make(chan message, 1000),
		incoming: make(chan interface{}, 1000),
		closeCh:  make(chan struct{}),
	}

	go sp.loop()

	return sp
}

// Messages receives everything that is not data for an open Port.
func (sp *SPJS) Messages() <-chan interface{} {
	return sp.incoming
}

func (sp *SPJS) Close() error {
	sp.closed.Do(func() { close(sp.closeCh) })
	return nil
}

func parseMessage(data []byte) (val interface{}, err error) {
	var msg map[string]json.RawMessage
	if err = json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	check := func(fieldName string, v interface{}) bool {
		if msg[fieldName] == nil {
			return false
		}
		val = v
		err = json.Unmarshal(data, val)
		return true
	}
	if check("Error", &ErrorMessage{}) {
		return
	}
	if check("SerialPorts", &SerialPortList{}) {
		return
	}
	if check("Cmd", &CmdStatus{}) {
		return
	}
	if check("D", &DataFrame{}) {
		return
	}

	return nil, errors.New("unknown message: " + string(data))
}

func (sp *SPJS) readLoop(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			sp.log.WithError(err).Error("read")
			return
		}
		if !bytes.HasPrefix(data, []byte("{")) {
			// ignore echo messages
			continue
		}
		val, err := parseMessage(data)
		if err != nil {
			sp.log.WithError(err).Warn("parse")
			continue
		}
		if df, ok := val.(*DataFrame); ok && sp.route(df) {
			continue
		}
		select {
		case sp.incoming <- val:
		default:
			sp.log.Debug("dropped unread message")
		}
	}
}

func (sp *SPJS) route(df *DataFrame) bool {
	sp.mx.RLock()
	p := sp.ports[df.Port]
	sp.mx.RUnlock()
	if p == nil {
		return false
	}
	data := df.Data
	if !strings.HasSuffix(data, "\n") {
		data += "\n"
	}
	p.pw.Write([]byte(data))
	return true
}

func (sp *SPJS) loop() {
	var nextUp message

reconnect:
	for {
		select {
		case <-sp.closeCh:
			return
		default:
		}
		sp.log.Info("connecting")
		ws, _, err := websocket.DefaultDialer.Dial(sp.url, nil)
		if err != nil {
			sp.log.WithError(err).Error("connect")
			select {
			case <-sp.closeCh:
				return
			case <-time.After(3 * time.Second):
			}
			continue
		}
		sp.log.Info("connected")
		ch := make(chan struct{})
		go sp.readLoop(ws, ch)
		go sp.WriteString("list") // refresh list on reconnect

		for {
			if nextUp.done != nil {
				err = ws.WriteMessage(websocket.TextMessage, nextUp.payload)
				if err != nil {
					sp.log.WithError(err).Error("send")
					ws.Close()
					continue reconnect
				}
				close(nextUp.done)
				nextUp.done = nil
			}

			select {
			case <-sp.closeCh:
				ws.Close()
				return
			case <-ch:
				continue reconnect
			case nextUp = <-sp.outgoing:
			}
		}
	}
}

type JSON struct {
	Port string `json:"P"`
	Data []Data
}
type Data struct {
	Data string `json:"D"`
	ID   string `json:"Id"`
}

func (sp *SPJS) nextID() string {
	id := atomic.AddInt64(&sp.lastID, 1)
	return "gcsim_" + strconv.FormatInt(id, 36)
}

func (sp *SPJS) send(payload []byte) error {
	ch := make(chan struct{})
	select {
	case sp.outgoing <- message{done: ch, payload: payload}:
	case <-sp.closeCh:
		return io.ErrClosedPipe
	}
	select {
	case <-ch:
		return nil
	case <-sp.closeCh:
		return io.ErrClosedPipe
	}
}

func (sp *SPJS) SendJSON(v JSON) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return sp.send(append([]byte("sendjson "), data...))
}

func (sp *SPJS) WriteString(data string) error {
	return sp.send([]byte(data))
}

// Port opens the named serial port on the server and returns it as a
// stream. Each line written is sent as one queued command; data the
// device sends back is read line by line.
func (sp *SPJS) Port(name string, baud int) (*Port, error) {
	pr, pw := io.Pipe()
	p := &Port{sp: sp, name: name, pr: pr, pw: pw}

	sp.mx.Lock()
	if old := sp.ports[name]; old != nil {
		old.pw.Close()
	}
	sp.ports[name] = p
	sp.mx.Unlock()

	// the server's own buffering is disabled; callers do flow control
	err := sp.WriteString("open " + name + " " + strconv.Itoa(baud) + " default")
	if err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

type Port struct {
	sp   *SPJS
	name string
	pr   *io.PipeReader
	pw   *io.PipeWriter
}

func (p *Port) Name() string { return p.name }

func (p *Port) Read(b []byte) (int, error) { return p.pr.Read(b) }

func (p *Port) Write(b []byte) (int, error) {
	j := JSON{Port: p.name}
	lines := strings.SplitAfter(string(b), "\n")
	for _, l := range lines {
		if l == "" {
			continue
		}
		j.Data = append(j.Data, Data{Data: l, ID: p.sp.nextID()})
	}
	if len(j.Data) == 0 {
		return 0, nil
	}
	if err := p.sp.SendJSON(j); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Close stops routing data to p. The serial port stays open on the server.
func (p *Port) Close() error {
	p.sp.mx.Lock()
	if p.sp.ports[p.name] == p {
		delete(p.sp.ports, p.name)
	}
	p.sp.mx.Unlock()
	return p.pw.Close()
}
