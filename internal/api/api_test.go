package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/memocurve/internal/api"
	"github.com/vytor/memocurve/internal/clock"
	"github.com/vytor/memocurve/internal/collection"
	"github.com/vytor/memocurve/internal/jobs"
	"github.com/vytor/memocurve/internal/models"
	"github.com/vytor/memocurve/internal/repository/sqlite"
	"github.com/vytor/memocurve/internal/services"
	"github.com/vytor/memocurve/internal/testutil"
	"github.com/vytor/memocurve/internal/worker"
)

var apiNow = time.Date(2026, 6, 1, 7, 30, 0, 0, time.UTC)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type APISuite struct {
	suite.Suite
	db      *sql.DB
	pool    *worker.Pool
	handler http.Handler
	ids     int
}

func (s *APISuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.ids = 0
	newID := func() string {
		s.ids++
		return fmt.Sprintf("id-%d", s.ids)
	}
	clk := clock.Fixed(apiNow)

	cards := sqlite.NewCardRepository(s.db)
	history := sqlite.NewReviewHistoryRepository(s.db)

	s.pool = worker.NewPool(1, 4)
	s.pool.Start(context.Background())
	queue := jobs.NewWorkerQueue(s.pool, cards, clk, newID, nil)
	importService := services.NewImportService(cards, queue, clk, newID)
	queue.SetProgress(importService)

	srv := &api.Server{
		CardService:   services.NewCardService(cards, clk, newID),
		StudyService:  services.NewStudyService(cards, history, clk, 5),
		ImportService: importService,
		DB:            pingFunc(s.db.PingContext),
		Clock:         clk,
	}
	s.handler = srv.Routes()
}

func (s *APISuite) TearDownTest() {
	s.pool.Stop()
	testutil.MustClose(s.T(), s.db)
}

func (s *APISuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *APISuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *APISuite) createFree(question, answer string) models.Card {
	rec := s.do(http.MethodPost, "/api/cards", map[string]any{
		"questionType": "free",
		"questionText": question,
		"answerText":   answer,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var card models.Card
	s.decode(rec, &card)
	return card
}

func (s *APISuite) TestHealthAndReady() {
	rec := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.NotEmpty(rec.Header().Get("X-Request-ID"))
	s.Equal("nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = s.do(http.MethodGet, "/ready", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *APISuite) TestCreateAndGetCard() {
	card := s.createFree("2+2?", "4")
	s.Equal("id-1", card.ID)
	s.Equal(2.5, card.EaseFactor)
	s.Require().NotNil(card.NextReview)
	s.True(card.NextReview.Equal(apiNow))

	rec := s.do(http.MethodGet, "/api/cards/id-1", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var got models.Card
	s.decode(rec, &got)
	s.Equal("4", got.AnswerText)
}

func (s *APISuite) TestCreateCardValidation() {
	rec := s.do(http.MethodPost, "/api/cards", map[string]any{
		"questionType":       "four",
		"choices":            []string{"a", "", "", ""},
		"correctChoiceIndex": 0,
	})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error struct {
			Code  string `json:"code"`
			Field string `json:"field"`
		} `json:"error"`
	}
	s.decode(rec, &body)
	s.Equal("VALIDATION_ERROR", body.Error.Code)
	s.Equal("choices", body.Error.Field)

	rec = s.do(http.MethodPost, "/api/cards", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestGetMissingCard() {
	rec := s.do(http.MethodGet, "/api/cards/nope", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *APISuite) TestReviewFlow() {
	s.createFree("capital of Italy", "Rome")

	var iv models.IntervalPreview
	rec := s.do(http.MethodGet, "/api/cards/id-1/intervals", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &iv)
	s.Equal(models.IntervalPreview{CardID: "id-1", Again: 1, Hard: 1, Good: 1, Easy: 1}, iv)

	for i, want := range []int{1, 3, 8} {
		rec = s.do(http.MethodPost, "/api/cards/id-1/review", map[string]any{"quality": 3})
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		var card models.Card
		s.decode(rec, &card)
		s.Equal(i+1, card.Repetitions)
		s.Equal(want, card.Interval)
		s.True(card.NextReview.Equal(apiNow.AddDate(0, 0, want)))
	}
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/cards/id-1", nil).Code)

	var history []models.ReviewHistory
	rec = s.do(http.MethodGet, "/api/cards/id-1/history", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &history)
	s.Len(history, 3)
}

func (s *APISuite) TestReviewFormAndInvalidQuality() {
	s.createFree("q", "a")

	req := httptest.NewRequest(http.MethodPost, "/api/cards/id-1/review", strings.NewReader("quality=again"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/cards/id-1/review", map[string]any{"quality": 5})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPost, "/api/cards/missing/review", map[string]any{"quality": 2})
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *APISuite) TestStudyOverview() {
	s.createFree("a", "1")
	s.createFree("b", "2")
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/cards/id-2/review", map[string]any{"quality": 2}).Code)

	var ov models.StudyOverview
	rec := s.do(http.MethodGet, "/api/study", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &ov)
	s.Equal(2, ov.Total)
	s.Equal(1, ov.Studied)
	s.Equal(1, ov.DueCount)
	s.Require().Len(ov.Upcoming, 1)
	s.Equal("id-2", ov.Upcoming[0].ID)
	s.Equal(1, ov.Upcoming[0].DaysUntil)
	s.Equal("2", ov.Upcoming[0].AnswerPreview)

	var due struct {
		Cards []models.Card `json:"cards"`
		Count int           `json:"count"`
	}
	rec = s.do(http.MethodGet, "/api/study/due", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &due)
	s.Equal(1, due.Count)
	s.Require().Len(due.Cards, 1)
	s.Equal("id-1", due.Cards[0].ID)
}

func (s *APISuite) TestListAndDelete() {
	s.createFree("alpha", "one")
	s.createFree("beta", "two")
	s.createFree("gamma", "three")
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/cards/id-3/review", map[string]any{"quality": 2}).Code)

	var list struct {
		Cards []models.Card `json:"cards"`
		Total int           `json:"total"`
	}
	rec := s.do(http.MethodGet, "/api/cards?due=true", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &list)
	s.Equal(2, list.Total)

	rec = s.do(http.MethodGet, "/api/cards?q=TWO", nil)
	s.decode(rec, &list)
	s.Require().Len(list.Cards, 1)
	s.Equal("id-2", list.Cards[0].ID)

	rec = s.do(http.MethodGet, "/api/cards?type=bogus", nil)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/cards/id-1", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/api/cards/id-1", nil).Code)

	var deleted map[string]int64
	rec = s.do(http.MethodPost, "/api/cards/delete", map[string]any{"ids": []string{"id-2", "id-9"}})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &deleted)
	s.Equal(int64(1), deleted["deleted"])

	rec = s.do(http.MethodDelete, "/api/cards", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &deleted)
	s.Equal(int64(1), deleted["deleted"])
}

func (s *APISuite) TestUpdateCard() {
	s.createFree("q", "a")
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/cards/id-1/review", map[string]any{"quality": 2}).Code)

	rec := s.do(http.MethodPut, "/api/cards/id-1", map[string]any{
		"questionType":       "multi",
		"questionText":       "pick",
		"choices":            []string{"x", "y", "z"},
		"correctChoiceIndex": 2,
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var card models.Card
	s.decode(rec, &card)
	s.Equal(models.QuestionTypeMulti, card.QuestionType)
	s.Equal(1, card.Repetitions)
}

func (s *APISuite) waitForImport(id string) models.ImportStatus {
	var st models.ImportStatus
	s.Require().Eventually(func() bool {
		rec := s.do(http.MethodGet, "/api/collection/imports/"+id, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
			return false
		}
		return st.State == models.ImportDone || st.State == models.ImportFailed
	}, 2*time.Second, 10*time.Millisecond)
	return st
}

func (s *APISuite) TestImportAndExport() {
	doc := `[
	  {"id":"legacy-1","answer":"old","repetitions":3,"easeFactor":2.2,"interval":9,"nextReview":"2026-06-05T07:30:00Z"},
	  {"id":"new-1","questionType":"four","choices":["a","b","c","d"],"correctChoiceIndex":1}
	]`
	req := httptest.NewRequest(http.MethodPost, "/api/collection/import", strings.NewReader(doc))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusAccepted, rec.Code, rec.Body.String())

	var st models.ImportStatus
	s.decode(rec, &st)
	st = s.waitForImport(st.ID)
	s.Equal(models.ImportDone, st.State, st.Error)
	s.Equal(2, st.Imported)
	s.Equal(1, st.Normalized)

	var legacy models.Card
	rec = s.do(http.MethodGet, "/api/cards/legacy-1", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &legacy)
	s.Equal(models.QuestionTypeFree, legacy.QuestionType)
	s.Equal("old", legacy.AnswerText)
	s.Equal(9, legacy.Interval)

	rec = s.do(http.MethodGet, "/api/collection/export", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Header().Get("Content-Disposition"), "flashcards.json")
	var exported []models.Card
	s.decode(rec, &exported)
	s.Len(exported, 2)
}

func (s *APISuite) TestImportMultipart() {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "flashcards.json")
	s.Require().NoError(err)
	_, err = fw.Write([]byte(`[{"id":"m1","questionType":"free","answerText":"yes"}]`))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/collection/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusAccepted, rec.Code, rec.Body.String())

	var st models.ImportStatus
	s.decode(rec, &st)
	st = s.waitForImport(st.ID)
	s.Equal(1, st.Imported)
}

// blanks is an endless run of spaces.
type blanks struct{}

func (blanks) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = ' '
	}
	return len(p), nil
}

func (s *APISuite) TestImportOversizedBodyIsCorrupt() {
	body := io.LimitReader(blanks{}, collection.MaxSize+4096)
	req := httptest.NewRequest(http.MethodPost, "/api/collection/import", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusAccepted, rec.Code, rec.Body.String())

	var st models.ImportStatus
	s.decode(rec, &st)
	s.True(st.Corrupt)
	st = s.waitForImport(st.ID)
	s.Equal(models.ImportDone, st.State, st.Error)
	s.Zero(st.Imported)
}

func (s *APISuite) TestImportOversizedUploadIsCorrupt() {
	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)
	go func() {
		fw, err := mw.CreateFormFile("file", "flashcards.json")
		if err == nil {
			_, err = io.Copy(fw, io.LimitReader(blanks{}, collection.MaxSize+4096))
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req := httptest.NewRequest(http.MethodPost, "/api/collection/import", pr)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusAccepted, rec.Code, rec.Body.String())

	var st models.ImportStatus
	s.decode(rec, &st)
	s.True(st.Corrupt)
}

func (s *APISuite) TestImportUploadWithoutFile() {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	s.Require().NoError(mw.WriteField("note", "no file here"))
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/collection/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.Equal(http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	s.Contains(rec.Body.String(), `"field":"file"`)
}

func (s *APISuite) TestUnknownRoute() {
	rec := s.do(http.MethodGet, "/api/nothing", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("application/json", rec.Header().Get("Content-Type"))
}

func TestReady_DatabaseDown(t *testing.T) {
	srv := &api.Server{DB: pingFunc(func(context.Context) error { return errors.New("closed") })}
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unavailable")
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}
