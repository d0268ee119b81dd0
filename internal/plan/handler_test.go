package plan_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yevgeniy8/books-reading-backend/internal/plan"
	"github.com/yevgeniy8/books-reading-backend/pkg/database"
	"github.com/yevgeniy8/books-reading-backend/pkg/models"
	"github.com/yevgeniy8/books-reading-backend/pkg/utils"
)

func setupPlanTest(t *testing.T) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	if err := database.InitDatabase(dbPath); err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return insertUser(t, "reader@example.com")
}

func insertUser(t *testing.T, email string) string {
	t.Helper()
	id, err := utils.GenerateID(12)
	if err != nil {
		t.Fatalf("generate id: %v", err)
	}
	if _, err := database.DB.Exec(
		`INSERT INTO users (id, name, email, password_hash) VALUES (?, ?, ?, ?)`,
		id, "Reader", email, "x"); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func insertBook(t *testing.T, owner, title string, total, finished int) string {
	t.Helper()
	id, err := utils.GenerateID(12)
	if err != nil {
		t.Fatalf("generate id: %v", err)
	}
	if _, err := database.DB.Exec(
		`INSERT INTO books (id, owner, title, author, publish_year, pages_total, pages_finished)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, owner, title, "Author", 2001, total, finished); err != nil {
		t.Fatalf("insert book: %v", err)
	}
	return id
}

func insertPlan(t *testing.T, owner, startDate, endDate, status string, bookIDs ...string) string {
	t.Helper()
	id, err := utils.GenerateID(12)
	if err != nil {
		t.Fatalf("generate id: %v", err)
	}
	if _, err := database.DB.Exec(
		`INSERT INTO plans (id, owner, start_date, end_date, status) VALUES (?, ?, ?, ?, ?)`,
		id, owner, startDate, endDate, status); err != nil {
		t.Fatalf("insert plan: %v", err)
	}
	for i, bookID := range bookIDs {
		if _, err := database.DB.Exec(
			`INSERT INTO plan_books (plan_id, book_id, position) VALUES (?, ?, ?)`,
			id, bookID, i); err != nil {
			t.Fatalf("insert plan book: %v", err)
		}
	}
	return id
}

func newPlanRouter(owner string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", owner)
	})

	handler := plan.NewHandler()
	router.GET("/api/plans", handler.Get)
	router.POST("/api/plans", handler.Add)
	router.PATCH("/api/plans", handler.ChangeStatus)
	router.DELETE("/api/plans", handler.Finish)
	return router
}

func performJSON(t *testing.T, router *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func dateFromToday(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

func TestAddPlan_InitialQuota(t *testing.T) {
	owner := setupPlanTest(t)
	router := newPlanRouter(owner)
	bookID := insertBook(t, owner, "Kobzar", 100, 0)

	resp := performJSON(t, router, "POST", "/api/plans?timezone=UTC", gin.H{
		"startDate": dateFromToday(0),
		"endDate":   dateFromToday(10),
		"books":     []string{bookID},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created models.PlanResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Status != models.PlanStatusActive {
		t.Fatalf("expected active status, got %s", created.Status)
	}
	if created.PagesPerDay != 10 {
		t.Fatalf("expected quota 10, got %d", created.PagesPerDay)
	}
	if len(created.Books) != 1 || created.Books[0].ID != bookID {
		t.Fatalf("unexpected books in response: %+v", created.Books)
	}
}

func TestAddPlan_FutureStartIsIdle(t *testing.T) {
	owner := setupPlanTest(t)
	router := newPlanRouter(owner)
	bookID := insertBook(t, owner, "Kobzar", 100, 0)

	resp := performJSON(t, router, "POST", "/api/plans?timezone=UTC", gin.H{
		"startDate": dateFromToday(3),
		"endDate":   dateFromToday(13),
		"books":     []string{bookID},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created models.PlanResponse
	json.Unmarshal(resp.Body.Bytes(), &created)
	if created.Status != models.PlanStatusIdle {
		t.Fatalf("expected idle status, got %s", created.Status)
	}
}

func TestAddPlan_SecondPlanConflicts(t *testing.T) {
	owner := setupPlanTest(t)
	router := newPlanRouter(owner)
	first := insertBook(t, owner, "Kobzar", 100, 0)
	second := insertBook(t, owner, "Zakhar Berkut", 200, 0)
	insertPlan(t, owner, dateFromToday(0), dateFromToday(10), models.PlanStatusActive, first)

	resp := performJSON(t, router, "POST", "/api/plans?timezone=UTC", gin.H{
		"startDate": dateFromToday(0),
		"endDate":   dateFromToday(10),
		"books":     []string{second},
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAddPlan_InvalidDates(t *testing.T) {
	owner := setupPlanTest(t)
	router := newPlanRouter(owner)
	bookID := insertBook(t, owner, "Kobzar", 100, 0)

	testCases := []struct {
		name  string
		start string
		end   string
	}{
		{name: "start in the past", start: dateFromToday(-1), end: dateFromToday(10)},
		{name: "end equals start", start: dateFromToday(0), end: dateFromToday(0)},
		{name: "end before start", start: dateFromToday(5), end: dateFromToday(2)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := performJSON(t, router, "POST", "/api/plans?timezone=UTC", gin.H{
				"startDate": tc.start,
				"endDate":   tc.end,
				"books":     []string{bookID},
			})
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
			}
		})
	}
}

func TestAddPlan_RejectsBadBookSets(t *testing.T) {
	owner := setupPlanTest(t)
	router := newPlanRouter(owner)
	bookID := insertBook(t, owner, "Kobzar", 100, 0)
	finished := insertBook(t, owner, "Already Read", 50, 50)

	stranger := insertUser(t, "other@example.com")
	foreign := insertBook(t, stranger, "Not Yours", 100, 0)

	testCases := []struct {
		name  string
		books []string
	}{
		{name: "duplicate ids", books: []string{bookID, bookID}},
		{name: "finished book", books: []string{finished}},
		{name: "foreign book", books: []string{foreign}},
		{name: "unknown book", books: []string{"missing"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := performJSON(t, router, "POST", "/api/plans?timezone=UTC", gin.H{
				"startDate": dateFromToday(0),
				"endDate":   dateFromToday(10),
				"books":     tc.books,
			})
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
			}
		})
	}
}

func TestGetPlan_NotFound(t *testing.T) {
	owner := setupPlanTest(t)
	router := newPlanRouter(owner)

	resp := performJSON(t, router, "GET", "/api/plans?timezone=UTC", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestGetPlan_InvalidTimezone(t *testing.T) {
	owner := setupPlanTest(t)
	router := newPlanRouter(owner)

	resp := performJSON(t, router, "GET", "/api/plans?timezone=Mars/Olympus", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetPlan_QuotaRecomputed(t *testing.T) {
	owner := setupPlanTest(t)
	router := newPlanRouter(owner)
	bookID := insertBook(t, owner, "Kobzar", 100, 10)
	insertPlan(t, owner, dateFromToday(0), dateFromToday(5), models.PlanStatusActive, bookID)

	resp := performJSON(t, router, "GET", "/api/plans?timezone=UTC", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var got models.PlanResponse
	json.Unmarshal(resp.Body.Bytes(), &got)
	if got.PagesPerDay != 18 {
		t.Fatalf("expected quota ceil(90/5)=18, got %d", got.PagesPerDay)
	}
}

func TestGetPlan_ExpiredBecomesTimeover(t *testing.T) {
	owner := setupPlanTest(t)
	router := newPlanRouter(owner)
	bookID := insertBook(t, owner, "Kobzar", 100, 20)
	insertPlan(t, owner, "2020-01-01", "2020-01-10", models.PlanStatusActive, bookID)

	resp := performJSON(t, router, "GET", "/api/plans?timezone=UTC", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var got models.PlanResponse
	json.Unmarshal(resp.Body.Bytes(), &got)
	if got.Status != models.PlanStatusTimeover {
		t.Fatalf("expected timeover, got %s", got.Status)
	}
	if got.PagesPerDay != 0 {
		t.Fatalf("expected quota 0, got %d", got.PagesPerDay)
	}

	// The transition persisted; a later read still sees timeover.
	var status string
	if err := database.DB.QueryRow(`SELECT status FROM plans WHERE owner = ?`, owner).Scan(&status); err != nil {
		t.Fatalf("query plan status: %v", err)
	}
	if status != models.PlanStatusTimeover {
		t.Fatalf("expected persisted timeover, got %s", status)
	}
}

func TestChangeStatus_Rules(t *testing.T) {
	owner := setupPlanTest(t)
	router := newPlanRouter(owner)
	bookID := insertBook(t, owner, "Kobzar", 100, 0)
	insertPlan(t, owner, dateFromToday(3), dateFromToday(13), models.PlanStatusIdle, bookID)

	// startDate is still in the future.
	resp := performJSON(t, router, "PATCH", "/api/plans?timezone=UTC", gin.H{"status": "active"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for early activation, got %d", resp.Code)
	}

	// endDate has not passed yet.
	resp = performJSON(t, router, "PATCH", "/api/plans?timezone=UTC", gin.H{"status": "timeover"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for early timeover, got %d", resp.Code)
	}

	// Only active and timeover are settable at all.
	resp = performJSON(t, router, "PATCH", "/api/plans?timezone=UTC", gin.H{"status": "finished"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for disallowed status, got %d", resp.Code)
	}
}

func TestChangeStatus_ActivatesStartedPlan(t *testing.T) {
	owner := setupPlanTest(t)
	router := newPlanRouter(owner)
	bookID := insertBook(t, owner, "Kobzar", 100, 0)
	insertPlan(t, owner, dateFromToday(0), dateFromToday(10), models.PlanStatusIdle, bookID)

	resp := performJSON(t, router, "PATCH", "/api/plans?timezone=UTC", gin.H{"status": "active"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var got map[string]string
	json.Unmarshal(resp.Body.Bytes(), &got)
	if got["status"] != models.PlanStatusActive {
		t.Fatalf("expected active, got %s", got["status"])
	}
}

func TestFinish_IdlePlanDeletedWithoutHistory(t *testing.T) {
	owner := setupPlanTest(t)
	router := newPlanRouter(owner)
	bookID := insertBook(t, owner, "Kobzar", 100, 0)
	insertPlan(t, owner, dateFromToday(3), dateFromToday(13), models.PlanStatusIdle, bookID)

	resp := performJSON(t, router, "DELETE", "/api/plans?timezone=UTC", nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", resp.Code, resp.Body.String())
	}

	var count int
	database.DB.QueryRow(`SELECT COUNT(*) FROM plans WHERE owner = ?`, owner).Scan(&count)
	if count != 0 {
		t.Fatal("expected plan to be deleted")
	}
	database.DB.QueryRow(`SELECT COUNT(*) FROM history WHERE owner = ?`, owner).Scan(&count)
	if count != 0 {
		t.Fatal("expected no history entry for an idle plan")
	}
}

func TestFinish_ActivePlanArchivedAsCancel(t *testing.T) {
	owner := setupPlanTest(t)
	router := newPlanRouter(owner)
	bookID := insertBook(t, owner, "Kobzar", 100, 40)
	insertPlan(t, owner, dateFromToday(0), dateFromToday(10), models.PlanStatusActive, bookID)

	resp := performJSON(t, router, "DELETE", "/api/plans?timezone=UTC", nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", resp.Code, resp.Body.String())
	}

	var status, completionDate string
	err := database.DB.QueryRow(`SELECT status, completion_date FROM history WHERE owner = ?`, owner).
		Scan(&status, &completionDate)
	if err != nil {
		t.Fatalf("expected history entry: %v", err)
	}
	if status != models.PlanStatusCancel {
		t.Fatalf("expected archived status cancel, got %s", status)
	}
	if completionDate != dateFromToday(0) {
		t.Fatalf("expected completion date %s, got %s", dateFromToday(0), completionDate)
	}

	var count int
	database.DB.QueryRow(`SELECT COUNT(*) FROM plans WHERE owner = ?`, owner).Scan(&count)
	if count != 0 {
		t.Fatal("expected plan to be deleted after archival")
	}
}

func TestFinish_NotFound(t *testing.T) {
	owner := setupPlanTest(t)
	router := newPlanRouter(owner)

	resp := performJSON(t, router, "DELETE", "/api/plans?timezone=UTC", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
