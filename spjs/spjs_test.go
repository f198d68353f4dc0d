package spjs

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	v, err := parseMessage([]byte(`{"P":"COM1","D":"ok"}`))
	require.NoError(t, err)
	assert.Equal(t, &DataFrame{Port: "COM1", Data: "ok"}, v)

	v, err = parseMessage([]byte(`{"Cmd":"Complete","Id":"x1","P":"COM1","D":["G0X1"]}`))
	require.NoError(t, err)
	assert.Equal(t, "Complete", v.(*CmdStatus).Cmd)
	assert.Equal(t, "x1", v.(*CmdStatus).ID)

	v, err = parseMessage([]byte(`{"SerialPorts":[{"Name":"COM1","IsOpen":true,"Baud":115200}]}`))
	require.NoError(t, err)
	assert.Equal(t, []SerialPort{{Name: "COM1", IsOpen: true, Baud: 115200}}, v.(*SerialPortList).SerialPorts)

	_, err = parseMessage([]byte(`{"Hello":1}`))
	assert.Error(t, err)
}

type fakeServer struct {
	*httptest.Server
	recv chan string
	conn chan *websocket.Conn
}

func newFakeServer(t *testing.T) *fakeServer {
	s := &fakeServer{recv: make(chan string, 100), conn: make(chan *websocket.Conn, 1)}
	var up websocket.Upgrader
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ws, err := up.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		s.conn <- ws
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			s.recv <- string(data)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *fakeServer) expect(t *testing.T, prefix string) string {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-s.recv:
			if strings.HasPrefix(msg, prefix) {
				return msg
			}
		case <-timeout:
			t.Fatalf("no message with prefix %q", prefix)
			return ""
		}
	}
}

func TestSPJS_Port(t *testing.T) {
	srv := newFakeServer(t)
	log, _ := logtest.NewNullLogger()
	sp := New("ws"+strings.TrimPrefix(srv.URL, "http"), log)
	defer sp.Close()

	p, err := sp.Port("COM1", 115200)
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, "open COM1 115200 default", srv.expect(t, "open "))

	var ws *websocket.Conn
	select {
	case ws = <-srv.conn:
	case <-time.After(2 * time.Second):
		t.Fatal("no connection")
	}

	n, err := p.Write([]byte("G0X1\nM5\n"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	msg := srv.expect(t, "sendjson ")
	var j JSON
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(msg, "sendjson ")), &j))
	assert.Equal(t, "COM1", j.Port)
	require.Len(t, j.Data, 2)
	assert.Equal(t, "G0X1\n", j.Data[0].Data)
	assert.Equal(t, "M5\n", j.Data[1].Data)
	assert.NotEqual(t, j.Data[0].ID, j.Data[1].ID)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"P":"COM1","D":"ok"}`)))
	line, err := bufio.NewReader(p).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "ok\n", line)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"SerialPorts":[{"Name":"COM1","IsOpen":true}]}`)))
	select {
	case m := <-sp.Messages():
		assert.Equal(t, &SerialPortList{SerialPorts: []SerialPort{{Name: "COM1", IsOpen: true}}}, m)
	case <-time.After(2 * time.Second):
		t.Fatal("no message")
	}
}
