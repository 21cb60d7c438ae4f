package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"orangebot/host/drive"
	"orangebot/host/link"
)

type fakePlatform struct {
	mu          sync.Mutex
	right, left int16
	sets        int
}

func (f *fakePlatform) Status() link.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return link.Status{
		Signature: "OrangeBot-2020-01-19",
		Mode:      "PWM",
		Positions: []int32{12, -3},
		Right:     f.right,
		Left:      f.left,
		LastError: -1,
	}
}

func (f *fakePlatform) SetPower(right, left int16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.right, f.left = right, left
	f.sets++
}

func (f *fakePlatform) power() (int16, int16, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.right, f.left, f.sets
}

func TestServer(t *testing.T) {
	Convey("Given a server in front of a platform", t, func() {
		platform := &fakePlatform{}
		server := NewServer(platform, drive.DefaultMixer(), 20*time.Millisecond, log.New(io.Discard, "", 0))
		ts := httptest.NewServer(server.Handler())
		Reset(ts.Close)

		Convey("GET /status returns the board view as JSON", func() {
			resp, err := http.Get(ts.URL + "/status")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var status link.Status
			So(json.NewDecoder(resp.Body).Decode(&status), ShouldBeNil)
			So(status.Signature, ShouldEqual, "OrangeBot-2020-01-19")
			So(status.Positions, ShouldResemble, []int32{12, -3})
		})

		Convey("POST /direction mixes and applies wheel power", func() {
			body := bytes.NewBufferString(`{"forward":1,"right":0}`)
			resp, err := http.Post(ts.URL+"/direction", "application/json", body)
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNoContent)

			right, left, _ := platform.power()
			So(right, ShouldEqual, int16(100))
			So(left, ShouldEqual, int16(100))
		})

		Convey("a malformed direction is rejected", func() {
			resp, err := http.Post(ts.URL+"/direction", "application/json", strings.NewReader("{"))
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("the websocket takes directions and streams status", func() {
			url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldBeNil)

			So(conn.WriteJSON(Message{Direction: &drive.Direction{Right: 1}}), ShouldBeNil)

			// Status pushes carry the power once the direction is applied
			var msg Message
			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				conn.SetReadDeadline(deadline)
				msg = Message{}
				if err := conn.ReadJSON(&msg); err != nil {
					break
				}
				if msg.Status != nil && msg.Status.Right == -70 {
					break
				}
			}
			So(msg.Status, ShouldNotBeNil)
			So(msg.Status.Right, ShouldEqual, int16(-70))
			So(msg.Status.Left, ShouldEqual, int16(70))

			Convey("and closing the socket stops the platform", func() {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				conn.Close()

				stopped := func() bool {
					r, l, _ := platform.power()
					return r == 0 && l == 0
				}
				for i := 0; i < 100 && !stopped(); i++ {
					time.Sleep(10 * time.Millisecond)
				}
				So(stopped(), ShouldBeTrue)
			})
		})
	})
}
