package smoke

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/acolyte/internal/adapters/http/api"
	service "github.com/okian/acolyte/internal/app"
	"github.com/okian/acolyte/internal/domain/model"
	"github.com/okian/acolyte/pkg/logger"
)

func testConfig(url string) *Config {
	return &Config{
		BaseURL:      url,
		Timeout:      2 * time.Second,
		Wait:         5 * time.Second,
		PollInterval: 20 * time.Millisecond,
	}
}

func TestRunAgainstLocalStack(t *testing.T) {
	_ = logger.Init(logger.WithWriter(io.Discard))

	Convey("Given a running local stack", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		svc := service.New(service.WithBatchWindowMS(10))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When the smoke run seeds and uploads", func() {
			cfg := testConfig(srv.URL)
			cfg.Upload = 7
			stats, err := Run(ctx, cfg)

			Convey("Then every record should be verified", func() {
				So(err, ShouldBeNil)
				So(stats.Seeded, ShouldEqual, 5)
				So(stats.Uploaded, ShouldEqual, 7)
				So(stats.Verified, ShouldEqual, 12)
				So(stats.Polls, ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestRunFailures(t *testing.T) {
	_ = logger.Init(logger.WithWriter(io.Discard))
	ctx := context.Background()

	Convey("Given a gateway whose table never fills", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {})
		mux.HandleFunc("/warriors", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"key":"ACOLYTE_WARRIORS","records":[{"warriorId":1,"name":"Kane","fightsWon":20,"fightsLoss":5}]}`))
		})
		mux.HandleFunc("/records", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"count":0,"items":[]}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		cfg := testConfig(srv.URL)
		cfg.Wait = 100 * time.Millisecond
		_, err := Run(ctx, cfg)

		Convey("Then the run should report the missing ids", func() {
			So(errors.Is(err, ErrNotIngested), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "[1]")
		})
	})

	Convey("Given a gateway that returns a different record", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/warriors", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"records":[{"warriorId":1,"name":"Kane","fightsWon":20,"fightsLoss":5}]}`))
		})
		mux.HandleFunc("/records", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"count":1,"items":[{"id":1,"name":"Kane","fightsWon":2,"fightsLoss":5}]}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		cfg := testConfig(srv.URL)
		cfg.SkipHealth = true
		cfg.Wait = 100 * time.Millisecond
		_, err := Run(ctx, cfg)

		So(errors.Is(err, ErrMismatch), ShouldBeTrue)
	})

	Convey("Given a gateway whose seed fails", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/warriors" {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{"message":"Internal server error"}`))
			}
		}))
		defer srv.Close()

		_, err := Run(ctx, testConfig(srv.URL))
		So(errors.Is(err, ErrUnexpectedStatus), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "502")
	})
}

func TestExpectation(t *testing.T) {
	Convey("Given an expectation over two warriors", t, func() {
		want := expectation{}
		want.add(
			model.Warrior{ID: 1, Name: "Kane", FightsWon: 20, FightsLoss: 5},
			model.Warrior{ID: 2, Name: "Rock", FightsWon: 50, FightsLoss: 10},
		)

		Convey("Then extra items should be ignored", func() {
			missing, mismatched := want.diff([]model.Item{
				{ID: 1, Name: "Kane", FightsWon: 20, FightsLoss: 5},
				{ID: 2, Name: "Rock", FightsWon: 50, FightsLoss: 10},
				{ID: 3, Name: "John", FightsWon: 30, FightsLoss: 15},
			})
			So(missing, ShouldBeEmpty)
			So(mismatched, ShouldBeEmpty)
		})

		Convey("Then a later upsert with new values should count as a mismatch", func() {
			_, mismatched := want.diff([]model.Item{
				{ID: 1, Name: "Kane", FightsWon: 21, FightsLoss: 5},
				{ID: 2, Name: "Rock", FightsWon: 50, FightsLoss: 10},
			})
			So(mismatched, ShouldHaveLength, 1)
		})
	})

	Convey("Given generated warriors", t, func() {
		ws := generateWarriors(3)

		Convey("Then they should be valid and clear of the roster ids", func() {
			for i, w := range ws {
				So(w.Validate(), ShouldBeNil)
				So(w.ID, ShouldEqual, int64(uploadIDBase+i))
			}
		})
	})
}
