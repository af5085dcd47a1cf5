package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ClientSuite struct {
	suite.Suite
	ctx context.Context
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *ClientSuite) newUpstream(status int) (*httptest.Server, *atomic.Int32) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(status)
	}))
	s.T().Cleanup(srv.Close)
	return srv, &calls
}

func (s *ClientSuite) TestResolveModel() {
	s.Run("registered model resolves", func() {
		srv, _ := s.newUpstream(http.StatusOK)
		exists, err := NewClient(srv.URL).ResolveModel(s.ctx, "credit-scorer")
		s.Require().NoError(err)
		s.True(exists)
	})

	s.Run("unknown model resolves to false without error", func() {
		srv, _ := s.newUpstream(http.StatusNotFound)
		exists, err := NewClient(srv.URL).ResolveModel(s.ctx, "ghost-model")
		s.Require().NoError(err)
		s.False(exists)
	})

	s.Run("upstream failure is an error", func() {
		srv, _ := s.newUpstream(http.StatusInternalServerError)
		_, err := NewClient(srv.URL).ResolveModel(s.ctx, "credit-scorer")
		s.Require().Error(err)
	})

	s.Run("model id is path escaped", func() {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			w.WriteHeader(http.StatusOK)
		}))
		s.T().Cleanup(srv.Close)

		_, err := NewClient(srv.URL).ResolveModel(s.ctx, "team/credit scorer")
		s.Require().NoError(err)
		s.Equal("/v1/models/team%2Fcredit%20scorer", gotPath)
	})
}

func (s *ClientSuite) TestConcurrentLookupsCollapse() {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	s.T().Cleanup(srv.Close)

	client := NewClient(srv.URL)

	const lookups = 8
	var wg sync.WaitGroup
	for range lookups {
		wg.Add(1)
		go func() {
			defer wg.Done()
			exists, err := client.ResolveModel(s.ctx, "credit-scorer")
			s.NoError(err)
			s.True(exists)
		}()
	}

	// Let every goroutine reach the singleflight gate before the upstream
	// answers, then the in-flight call is shared by all of them.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	s.Equal(int32(1), calls.Load())
}
