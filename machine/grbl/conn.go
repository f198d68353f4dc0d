package grbl

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// bufferSize is the size of grbl's serial receive buffer.
const bufferSize = 128

// ErrGrblReset will be returned from write methods if a reset is encountered
// before all commands are acknowledged.
var ErrGrblReset = errors.New("grbl reset")

// Conn is a line connection to a grbl controller. It streams lines while
// keeping at most 128 unacknowledged bytes in the controller's buffer.
type Conn struct {
	rw  io.ReadWriter
	log logrus.FieldLogger

	wMx sync.Mutex // serializes writes to rw
	sMx sync.Mutex // one streaming writer at a time

	mx       sync.Mutex
	cond     *sync.Cond
	inFlight []int
	used     int
	sent     int64
	acked    int64
	resets   int
	errs     map[int64]error
	closed   bool

	lines chan string
	done  chan struct{}
}

// NewConn creates a Conn and starts reading responses from rw.
func NewConn(rw io.ReadWriter, log logrus.FieldLogger) *Conn {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Conn{
		rw:    rw,
		log:   log,
		errs:  make(map[int64]error),
		lines: make(chan string, 64),
		done:  make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mx)
	go c.readLoop()
	return c
}

// Lines returns every response that is not an acknowledgement, such as
// status reports and alarms. Lines are dropped if nobody is reading.
func (c *Conn) Lines() <-chan string { return c.lines }

// Done is closed when the connection stops reading.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Close will abort any in-progress writes and close the
// underlying ReadWriter, if it implements io.Closer.
func (c *Conn) Close() error {
	c.shutdown()
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Conn) shutdown() {
	c.mx.Lock()
	c.closed = true
	c.cond.Broadcast()
	c.mx.Unlock()
}

func (c *Conn) readLoop() {
	defer close(c.done)
	defer c.shutdown()

	scan := bufio.NewScanner(c.rw)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		switch {
		case line == "":
		case line == "ok":
			c.ack(nil)
		case strings.HasPrefix(line, "error:"):
			c.ack(errors.New(line))
		case strings.HasPrefix(line, "Grbl"):
			c.reset()
			c.emit(line)
		default:
			c.emit(line)
		}
	}
	if err := scan.Err(); err != nil {
		c.log.WithError(err).Error("grbl read")
	}
}

func (c *Conn) emit(line string) {
	select {
	case c.lines <- line:
	default:
		c.log.WithField("data", line).Debug("grbl: dropped unread line")
	}
}

func (c *Conn) ack(err error) {
	c.mx.Lock()
	defer c.mx.Unlock()
	if len(c.inFlight) == 0 {
		c.log.Warn("grbl: unexpected acknowledgement")
		return
	}
	c.used -= c.inFlight[0]
	c.inFlight = c.inFlight[1:]
	c.acked++
	if err != nil {
		c.errs[c.acked] = err
	}
	c.cond.Broadcast()
}

func (c *Conn) reset() {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.used = 0
	c.inFlight = nil
	c.acked = c.sent
	c.resets++
	c.cond.Broadcast()
}

// reserve blocks until n bytes fit in the controller's buffer and
// accounts for them. It returns the id of the new line.
func (c *Conn) reserve(n int) (int64, error) {
	c.mx.Lock()
	defer c.mx.Unlock()
	for !c.closed && len(c.inFlight) > 0 && c.used+n > bufferSize {
		c.cond.Wait()
	}
	if c.closed {
		return 0, io.ErrClosedPipe
	}
	c.used += n
	c.inFlight = append(c.inFlight, n)
	c.sent++
	return c.sent, nil
}

// wait blocks until line id is acknowledged and returns the first error
// reported for lines first through id.
func (c *Conn) wait(first, id int64, resets int) error {
	c.mx.Lock()
	defer c.mx.Unlock()
	for !c.closed && c.acked < id && c.resets == resets {
		c.cond.Wait()
	}
	var err error
	for i := first; i <= id; i++ {
		if e, ok := c.errs[i]; ok {
			if err == nil {
				err = e
			}
			delete(c.errs, i)
		}
	}
	switch {
	case c.resets != resets:
		return ErrGrblReset
	case c.acked < id:
		return io.ErrClosedPipe
	}
	return err
}

func (c *Conn) write(p []byte) error {
	c.wMx.Lock()
	defer c.wMx.Unlock()
	_, err := c.rw.Write(p)
	return err
}

func splitLinesKeepN(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i+1], nil
	}
	if atEOF {
		// final line without a newline
		return len(data), append(data, '\n'), nil
	}
	return 0, nil, nil
}

// ReadFrom streams every line of r to the controller and returns after all
// of them are acknowledged. The first error reported by grbl is returned.
func (c *Conn) ReadFrom(r io.Reader) (n int64, err error) {
	c.sMx.Lock()
	defer c.sMx.Unlock()

	c.mx.Lock()
	resets := c.resets
	first := c.sent + 1
	c.mx.Unlock()

	scan := bufio.NewScanner(r)
	scan.Split(splitLinesKeepN)
	var last int64
	for scan.Scan() {
		line := scan.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if len(line) > bufferSize {
			return n, fmt.Errorf("line too long for grbl buffer (%d bytes)", len(line))
		}
		last, err = c.reserve(len(line))
		if err != nil {
			return n, err
		}
		if err = c.write(line); err != nil {
			return n, err
		}
		n += int64(len(line))
	}
	if err = scan.Err(); err != nil {
		return n, err
	}
	if last == 0 {
		return n, nil
	}

	return n, c.wait(first, last, resets)
}

// Write will return after all lines have been sent and acknowledged.
func (c *Conn) Write(p []byte) (int, error) {
	n, err := c.ReadFrom(bytes.NewReader(p))
	return int(n), err
}

// WriteLine sends a single line and waits for it to be acknowledged.
func (c *Conn) WriteLine(line string) error {
	_, err := c.Write([]byte(line + "\n"))
	return err
}

// WriteByte will write directly to the controller without
// accounting for buffering.
//
// Use for realtime commands like `?`.
func (c *Conn) WriteByte(p byte) error {
	c.mx.Lock()
	closed := c.closed
	c.mx.Unlock()
	if closed {
		return io.ErrClosedPipe
	}
	return c.write([]byte{p})
}
