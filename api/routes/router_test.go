package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/luisfigueroa/merchantflow-backend/internal/activities"
	"github.com/luisfigueroa/merchantflow-backend/internal/auth"
	"github.com/luisfigueroa/merchantflow-backend/internal/merchants"
	"github.com/luisfigueroa/merchantflow-backend/internal/onboarding"
	"github.com/luisfigueroa/merchantflow-backend/internal/payouts"
	"github.com/luisfigueroa/merchantflow-backend/internal/pipeline"
	pkgauth "github.com/luisfigueroa/merchantflow-backend/pkg/auth"
	"github.com/luisfigueroa/merchantflow-backend/pkg/config"
	"github.com/luisfigueroa/merchantflow-backend/pkg/db/models"
	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
	"github.com/luisfigueroa/merchantflow-backend/pkg/logger"
	"github.com/luisfigueroa/merchantflow-backend/pkg/pagination"
	"github.com/luisfigueroa/merchantflow-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "stub-token"}, nil
}

type stubMerchantService struct{}

func (stubMerchantService) Create(ctx context.Context, input merchants.CreateInput) (*models.Merchant, error) {
	return &models.Merchant{ID: uuid.New()}, nil
}

func (stubMerchantService) Get(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	return &models.Merchant{ID: id}, nil
}

func (stubMerchantService) List(ctx context.Context, params pagination.Params, filters merchants.ListFilters) (*merchants.MerchantList, error) {
	return &merchants.MerchantList{}, nil
}

func (stubMerchantService) Update(ctx context.Context, input merchants.UpdateInput) (*models.Merchant, error) {
	return &models.Merchant{ID: input.MerchantID}, nil
}

func (stubMerchantService) ReassignRep(ctx context.Context, input merchants.ReassignInput) (*models.Merchant, error) {
	return &models.Merchant{ID: input.MerchantID}, nil
}

type stubPipelineService struct{}

func (stubPipelineService) Get(ctx context.Context, merchantID uuid.UUID) (*models.Pipeline, error) {
	return &models.Pipeline{MerchantID: merchantID}, nil
}

func (stubPipelineService) History(ctx context.Context, merchantID uuid.UUID) ([]models.PipelineStageHistory, error) {
	return nil, nil
}

func (stubPipelineService) Transition(ctx context.Context, input pipeline.TransitionInput) (*models.Pipeline, error) {
	return &models.Pipeline{MerchantID: input.MerchantID, CurrentStage: input.NewStage}, nil
}

type stubOnboardingService struct{}

func (stubOnboardingService) Get(ctx context.Context, merchantID uuid.UUID) (*models.Onboarding, error) {
	return &models.Onboarding{MerchantID: merchantID}, nil
}

func (stubOnboardingService) EnsureTx(ctx context.Context, tx *gorm.DB, merchantID uuid.UUID) (*models.Onboarding, bool, error) {
	return &models.Onboarding{MerchantID: merchantID}, false, nil
}

func (stubOnboardingService) UpdateChecklist(ctx context.Context, input onboarding.UpdateChecklistInput) (*models.Onboarding, error) {
	return &models.Onboarding{MerchantID: input.MerchantID}, nil
}

func (stubOnboardingService) MarkLive(ctx context.Context, input onboarding.MarkLiveInput) (*models.Onboarding, error) {
	return &models.Onboarding{MerchantID: input.MerchantID}, nil
}

type stubActivityService struct{}

func (stubActivityService) Log(ctx context.Context, input activities.LogInput) (*models.Activity, error) {
	return &models.Activity{MerchantID: input.MerchantID}, nil
}

func (stubActivityService) ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*activities.ActivityList, error) {
	return &activities.ActivityList{}, nil
}

type stubPayoutService struct{}

func (stubPayoutService) Record(ctx context.Context, input payouts.RecordInput) (*models.PayoutEntry, bool, error) {
	return &models.PayoutEntry{}, true, nil
}

func (stubPayoutService) RecordTx(ctx context.Context, tx *gorm.DB, input payouts.RecordInput) (*models.PayoutEntry, bool, error) {
	return &models.PayoutEntry{}, true, nil
}

func (stubPayoutService) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]models.PayoutEntry, error) {
	return nil, nil
}

func (stubPayoutService) ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.PayoutEntry, error) {
	return nil, nil
}

func (stubPayoutService) TotalByRecipient(ctx context.Context, recipientID uuid.UUID) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "merchantflow-test",
			ExpirationMinutes: 15,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	return NewRouter(cfg, logg, stubPinger{}, (*redis.Client)(nil), Services{
		Auth:       stubAuthService{},
		Merchants:  stubMerchantService{},
		Pipeline:   stubPipelineService{},
		Onboarding: stubOnboardingService{},
		Activities: stubActivityService{},
		Payouts:    stubPayoutService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveAlwaysResponds(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for live got %d", resp.Code)
	}
	if got := resp.Header().Get("X-MerchantFlow-Env"); got != "test" {
		t.Fatalf("unexpected env header %q", got)
	}
}

func TestHealthReadyPingsDependencies(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for ready got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/merchants", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/merchants", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleRep))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d", resp.Code)
	}
}

func TestLoginAcceptsGoodJSON(t *testing.T) {
	router := newTestRouter(testConfig())

	body := strings.NewReader(`{"email":"rep@merchantflow.example.com","password":"secret-pass"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for login got %d", resp.Code)
	}
}

func TestLoginRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad login body got %d", resp.Code)
	}
}

func TestReassignRequiresManagerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	target := "/api/v1/merchants/" + uuid.NewString() + "/reassign"
	body := `{"new_rep_id":"` + uuid.NewString() + `"}`

	rep := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	rep.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleRep))
	rep.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, rep)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for rep reassign got %d", resp.Code)
	}

	manager := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	manager.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleManager))
	manager.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, manager)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for manager reassign got %d", resp.Code)
	}
}

func TestMerchantPayoutsRequiresManagerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	target := "/api/v1/merchants/" + uuid.NewString() + "/payouts"

	rep := httptest.NewRequest(http.MethodGet, target, nil)
	rep.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleRep))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, rep)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for rep payouts got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, target, nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin payouts got %d", resp.Code)
	}
}

func TestRepPayoutsAllowsAnyAuthenticatedUser(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reps/me/payouts", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleRep))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for rep payouts got %d", resp.Code)
	}
}

func TestPipelineTransitionFlowsThroughStub(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	target := "/api/v1/merchants/" + uuid.NewString() + "/pipeline/transition"

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(`{"new_stage":"CONTACTED"}`))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleRep))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for transition got %d", resp.Code)
	}
}
