package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"user-browser-service/internal/adapter/cache"
	"user-browser-service/internal/adapter/gin/handler"
	"user-browser-service/internal/adapter/gin/middleware"
	"user-browser-service/internal/adapter/randomuser"
	"user-browser-service/internal/adapter/source/cached"
	"user-browser-service/internal/usecase/userlist"
)

const pageSize = 2

// RouterTestSuite drives the HTTP surface against a real controller backed by
// a fake randomuser server and miniredis.
type RouterTestSuite struct {
	suite.Suite
	remote     *httptest.Server
	mr         *miniredis.Miniredis
	rdb        *redis.Client
	controller *userlist.Controller
	router     *gin.Engine
	log        *zap.Logger

	pages    map[int]string
	fail     atomic.Bool
	requests atomic.Int32
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.log = zaptest.NewLogger(s.T())
	s.fail.Store(false)
	s.requests.Store(0)

	s.pages = map[int]string{
		1: page(user("a1", "John", "Smith"), user("b2", "Ann", "Lee")),
		2: page(user("c3", "Bob", "Smithers"), user("d4", "Eve", "Park")),
		3: page(),
	}

	s.remote = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		if s.fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		n, _ := strconv.Atoi(r.URL.Query().Get("page"))
		body, ok := s.pages[n]
		if !ok {
			body = page()
		}
		_, _ = w.Write([]byte(body))
	}))

	s.mr = miniredis.RunT(s.T())
	s.rdb = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})

	client := randomuser.NewClient(s.remote.URL, s.log)
	source := cached.NewCachedSource(client, cache.NewRedisPageCache(s.rdb, time.Minute, s.log), s.log)

	s.controller = userlist.New(source, userlist.Options{PageSize: pageSize, Seed: "test"}, s.log)

	limiter := middleware.NewRateLimiter(s.rdb, middleware.RateLimiterConfig{
		RequestsPerSecond: 100,
		BurstCapacity:     100,
		Enabled:           true,
	}, s.log)

	s.router = SetupRouter(handler.NewViewHandler(s.controller, s.log), limiter, "user-browser-service", s.log)
}

func (s *RouterTestSuite) TearDownTest() {
	s.controller.Close()
	_ = s.rdb.Close()
	s.remote.Close()
}

func user(id, first, last string) string {
	return fmt.Sprintf(`{"login":{"uuid":%q},"name":{"first":%q,"last":%q},"email":"%s@x.com","picture":{"thumbnail":"https://img/%s.jpg"}}`,
		id, first, last, id, id)
}

func page(users ...string) string {
	body := `{"results":[`
	for i, u := range users {
		if i > 0 {
			body += ","
		}
		body += u
	}
	return body + `],"info":{"seed":"test"}}`
}

func (s *RouterTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterTestSuite) gesture(path string) handler.GestureResponse {
	w := s.do(http.MethodPost, path, nil)
	s.Require().Equal(http.StatusAccepted, w.Code)

	var resp handler.GestureResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.controller.Wait()
	return resp
}

func (s *RouterTestSuite) state() handler.StateResponse {
	w := s.do(http.MethodGet, "/v1/users", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp handler.StateResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func ids(st handler.StateResponse) []string {
	out := make([]string, len(st.Users))
	for i, u := range st.Users {
		out[i] = u.ID
	}
	return out
}

func (s *RouterTestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil)

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "healthy")
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *RouterTestSuite) TestInitialState() {
	st := s.state()

	s.Equal("idle", st.Phase)
	s.Empty(st.Users)
	s.Equal(1, st.CurrentPage)
}

func (s *RouterTestSuite) TestBrowseFlow() {
	resp := s.gesture("/v1/users/start")
	s.True(resp.Accepted)
	s.Equal("initial_loading", resp.Phase)

	st := s.state()
	s.Equal("loaded", st.Phase)
	s.Equal([]string{"a1", "b2"}, ids(st))

	s.True(s.gesture("/v1/users/load-more").Accepted)
	st = s.state()
	s.Equal([]string{"a1", "b2", "c3", "d4"}, ids(st))
	s.Equal(2, st.CurrentPage)

	// Page 3 is empty and marks the list complete.
	s.True(s.gesture("/v1/users/load-more").Accepted)
	st = s.state()
	s.True(st.AllLoaded)
	s.Equal(4, st.Total)
	s.False(s.gesture("/v1/users/load-more").Accepted)

	w := s.do(http.MethodPut, "/v1/users/search", handler.SearchRequest{Query: "SMITH"})
	s.Require().Equal(http.StatusOK, w.Code)
	var searched handler.StateResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &searched))
	s.Equal([]string{"a1", "c3"}, ids(searched))
	s.Equal(2, searched.Count)
	s.Equal(4, searched.Total)

	w = s.do(http.MethodGet, "/v1/users/c3/selection", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var sel handler.SelectionResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &sel))
	s.Equal("Bob Smithers", sel.FullName)
	s.Equal("c3@x.com", sel.Email)
}

func (s *RouterTestSuite) TestLoadMoreBlockedWhileSearching() {
	s.gesture("/v1/users/start")
	s.do(http.MethodPut, "/v1/users/search", handler.SearchRequest{Query: "ann"})

	s.False(s.gesture("/v1/users/load-more").Accepted)
	s.Equal(1, s.state().CurrentPage)
}

func (s *RouterTestSuite) TestFailureAndRetry() {
	s.fail.Store(true)
	s.gesture("/v1/users/start")

	st := s.state()
	s.Equal("error", st.Phase)
	s.Contains(st.Error, "unexpected status 503")

	s.fail.Store(false)
	s.True(s.gesture("/v1/users/retry").Accepted)

	st = s.state()
	s.Equal("loaded", st.Phase)
	s.Empty(st.Error)
	s.Len(st.Users, 2)
}

func (s *RouterTestSuite) TestRetryWithoutError() {
	s.gesture("/v1/users/start")
	s.False(s.gesture("/v1/users/retry").Accepted)
}

func (s *RouterTestSuite) TestLoadMoreServedFromCache() {
	s.gesture("/v1/users/start")
	s.gesture("/v1/users/load-more")
	before := s.requests.Load()

	// Refresh refetches page 1 from the remote; page 2 then comes from the cache.
	s.gesture("/v1/users/refresh")
	s.Equal(before+1, s.requests.Load())

	s.gesture("/v1/users/load-more")
	s.Equal(before+1, s.requests.Load())
	s.Equal([]string{"a1", "b2", "c3", "d4"}, ids(s.state()))
}

func (s *RouterTestSuite) TestSelectUnknown() {
	w := s.do(http.MethodGet, "/v1/users/nobody/selection", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterTestSuite) TestGesturesThrottled() {
	limiter := middleware.NewRateLimiter(s.rdb, middleware.RateLimiterConfig{
		RequestsPerSecond: 0.001,
		BurstCapacity:     1,
		Enabled:           true,
	}, s.log)
	s.router = SetupRouter(handler.NewViewHandler(s.controller, s.log), limiter, "user-browser-service", s.log)

	s.Equal(http.StatusAccepted, s.do(http.MethodPost, "/v1/users/refresh", nil).Code)
	s.Equal(http.StatusTooManyRequests, s.do(http.MethodPost, "/v1/users/refresh", nil).Code)

	// Reads are never throttled.
	for i := 0; i < 3; i++ {
		s.Equal(http.StatusOK, s.do(http.MethodGet, "/v1/users", nil).Code)
	}
	s.controller.Wait()
}

func TestSetupRouter_NilLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)
	ctrl := userlist.New(nil, userlist.Options{}, log)
	t.Cleanup(ctrl.Close)

	r := SetupRouter(handler.NewViewHandler(ctrl, log), nil, "svc", log)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/users", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"phase":"idle"`)
}
