/*
Copyright The Volcano Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"k8s.io/klog/v2"

	v1 "github.com/volcano-sh/tokens-codex/pkg/apis/v1"
	"github.com/volcano-sh/tokens-codex/pkg/compare"
	"github.com/volcano-sh/tokens-codex/pkg/metrics"
	"github.com/volcano-sh/tokens-codex/pkg/ratelimit"
)

const liveWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// liveSession serializes writes to one websocket connection.
type liveSession struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (l *liveSession) write(v any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout)); err != nil {
		return err
	}
	return l.conn.WriteJSON(v)
}

// handleLive recomputes the comparison for every frame the client sends.
// Only the newest frame is answered; older computations still running are discarded.
func (s *Server) handleLive(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		klog.Errorf("failed to upgrade live session: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.config.MaxInputBytes + 1024)

	session := &liveSession{id: uuid.New().String(), conn: conn}
	s.metrics.IncActiveLiveSessions()
	defer s.metrics.DecActiveLiveSessions()
	klog.V(4).Infof("live session %s opened by %s", session.id, c.ClientIP())

	runner := compare.NewRunner(s.comparator)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range runner.Updates() {
			s.record(session.id, "live", u.Outcome, u.Duration)
			resp := v1.LiveResponse{Seq: u.Seq, CompareResponse: v1.NewCompareResponse(u.Outcome)}
			if err := session.write(resp); err != nil {
				klog.V(4).Infof("live session %s write failed: %v", session.id, err)
			}
		}
	}()

	clientIP := c.ClientIP()
	for {
		var req v1.LiveRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				klog.V(4).Infof("live session %s closed: %v", session.id, err)
			}
			break
		}

		if _, err := s.limiter.RateLimit(clientIP, req.Text); err != nil {
			var exceeded *ratelimit.InputRateLimitExceededError
			if errors.As(err, &exceeded) {
				s.metrics.RecordRateLimitExceeded(metrics.LimitTypeInputTokens, v1.CompareLivePath)
			}
			if werr := session.write(v1.ErrorResponse{Error: err.Error()}); werr != nil {
				break
			}
			continue
		}
		runner.Submit(req.Seq, req.Text)
	}

	runner.Close()
	wg.Wait()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	klog.V(4).Infof("live session %s finished", session.id)
}

// index serves the single page UI.
func (s *Server) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}
