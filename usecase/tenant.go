package usecase

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oneelevenhq/leadbridge/core/config"
	domainTenant "github.com/oneelevenhq/leadbridge/domains/tenant"
	"github.com/oneelevenhq/leadbridge/infrastructure/valkey"
	"github.com/oneelevenhq/leadbridge/pkg/crypto"
	pkgError "github.com/oneelevenhq/leadbridge/pkg/error"
	"github.com/oneelevenhq/leadbridge/validations"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const credentialCacheTTL = 5 * time.Minute

// --- Persistence Models ---

type workspaceModel struct {
	ID              string    `gorm:"primaryKey;column:id"`
	Name            string    `gorm:"column:name;not null"`
	ForwardTokenEnc string    `gorm:"column:forward_token_enc;not null"`
	Enabled         bool      `gorm:"column:enabled;default:true"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (workspaceModel) TableName() string { return "workspaces" }

type instanceModel struct {
	ID           string         `gorm:"primaryKey;column:id"`
	WorkspaceID  string         `gorm:"column:workspace_id;not null;index"`
	InstanceName string         `gorm:"column:instance_name;not null;uniqueIndex"`
	Status       string         `gorm:"column:status;default:'pending'"`
	QRBase64     sql.NullString `gorm:"column:qr_base64"`
	LastEventAt  *time.Time     `gorm:"column:last_event_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (instanceModel) TableName() string { return "wa_instances" }

// --- Service ---

type webhookSigner interface {
	Sign(workspaceID, instanceName string) string
}

type tenantService struct {
	db     *gorm.DB
	cfg    *config.Config
	cipher *crypto.TokenCipher
	signer webhookSigner
	cache  *valkey.Client // nil when valkey is disabled
}

func NewTenantService(db *gorm.DB, cfg *config.Config, cipher *crypto.TokenCipher, signer webhookSigner, cache *valkey.Client) (domainTenant.ITenantUsecase, error) {
	s := &tenantService{db: db, cfg: cfg, cipher: cipher, signer: signer, cache: cache}
	if db == nil {
		return nil, pkgError.InternalServerError("tenant storage is not initialized")
	}
	if err := db.AutoMigrate(&workspaceModel{}, &instanceModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tenant tables: %w", err)
	}
	return s, nil
}

func (s *tenantService) CreateWorkspace(ctx context.Context, req domainTenant.CreateWorkspaceRequest) (domainTenant.Workspace, error) {
	if err := validations.ValidateCreateWorkspace(ctx, req); err != nil {
		return domainTenant.Workspace{}, err
	}

	tokenEnc, err := s.cipher.Encrypt(strings.TrimSpace(req.ForwardToken))
	if err != nil {
		return domainTenant.Workspace{}, pkgError.InternalServerError(fmt.Sprintf("failed to encrypt forward token: %v", err))
	}

	model := workspaceModel{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(req.Name),
		ForwardTokenEnc: tokenEnc,
		Enabled:         true,
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domainTenant.Workspace{}, err
	}
	return toWorkspace(model), nil
}

func (s *tenantService) ListWorkspaces(ctx context.Context) ([]domainTenant.Workspace, error) {
	var models []workspaceModel
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domainTenant.Workspace, 0, len(models))
	for _, m := range models {
		out = append(out, toWorkspace(m))
	}
	return out, nil
}

func (s *tenantService) GetWorkspace(ctx context.Context, id string) (domainTenant.Workspace, error) {
	var m workspaceModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domainTenant.Workspace{}, pkgError.NotFoundError("workspace not found")
		}
		return domainTenant.Workspace{}, err
	}
	return toWorkspace(m), nil
}

func (s *tenantService) CreateInstance(ctx context.Context, req domainTenant.CreateInstanceRequest) (domainTenant.CreateInstanceResponse, error) {
	if err := validations.ValidateCreateInstance(ctx, req); err != nil {
		return domainTenant.CreateInstanceResponse{}, err
	}

	ws, err := s.GetWorkspace(ctx, req.WorkspaceID)
	if err != nil {
		return domainTenant.CreateInstanceResponse{}, err
	}

	model := instanceModel{
		ID:           uuid.NewString(),
		WorkspaceID:  ws.ID,
		InstanceName: strings.TrimSpace(req.InstanceName),
		Status:       "pending",
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domainTenant.CreateInstanceResponse{}, err
	}

	webhookURL, err := s.buildWebhookURL(ctx, ws.ID, model.InstanceName)
	if err != nil {
		return domainTenant.CreateInstanceResponse{}, err
	}

	return domainTenant.CreateInstanceResponse{
		Instance:   toInstance(model),
		WebhookURL: webhookURL,
	}, nil
}

func (s *tenantService) ListInstances(ctx context.Context, workspaceID string) ([]domainTenant.Instance, error) {
	var models []instanceModel
	if err := s.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).Order("updated_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domainTenant.Instance, 0, len(models))
	for _, m := range models {
		out = append(out, toInstance(m))
	}
	return out, nil
}

// ResolveForwardToken is the lookup-mode credential path, on the webhook
// critical path. The optional valkey cache keeps per-request store reads
// off steady-state traffic; token rotation invalidates within the TTL.
func (s *tenantService) ResolveForwardToken(ctx context.Context, workspaceID string) (string, error) {
	if s.cache != nil {
		key := s.cache.Key("credential", workspaceID)
		if v, found, err := s.cache.GetString(ctx, key); err == nil && found {
			return v, nil
		} else if err != nil {
			logrus.WithError(err).Debug("[TENANT] Credential cache read failed")
		}
	}

	var m workspaceModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", workspaceID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	if !m.Enabled {
		return "", nil
	}

	token, err := s.cipher.Decrypt(m.ForwardTokenEnc)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt forward token: %w", err)
	}

	if s.cache != nil && token != "" {
		key := s.cache.Key("credential", workspaceID)
		if err := s.cache.SetString(ctx, key, token, credentialCacheTTL); err != nil {
			logrus.WithError(err).Debug("[TENANT] Credential cache write failed")
		}
	}
	return token, nil
}

func (s *tenantService) RotateForwardToken(ctx context.Context, workspaceID, newToken string) error {
	newToken = strings.TrimSpace(newToken)
	if newToken == "" {
		return pkgError.ValidationError("forward_token: cannot be blank.")
	}

	tokenEnc, err := s.cipher.Encrypt(newToken)
	if err != nil {
		return pkgError.InternalServerError(fmt.Sprintf("failed to encrypt forward token: %v", err))
	}

	res := s.db.WithContext(ctx).Model(&workspaceModel{}).
		Where("id = ?", workspaceID).
		Update("forward_token_enc", tokenEnc)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgError.NotFoundError("workspace not found")
	}

	// The cache must not serve the old token for the rest of its TTL.
	if s.cache != nil {
		key := s.cache.Key("credential", workspaceID)
		if err := s.cache.Delete(ctx, key); err != nil {
			logrus.WithError(err).Warnf("[TENANT] Failed to invalidate cached credential for workspace %s", workspaceID)
		}
	}
	return nil
}

func (s *tenantService) UpdateInstanceQR(ctx context.Context, instanceName, qrBase64 string) error {
	return s.db.WithContext(ctx).Model(&instanceModel{}).
		Where("instance_name = ?", instanceName).
		Updates(map[string]any{
			"qr_base64":     qrBase64,
			"status":        "qrcode",
			"last_event_at": time.Now().UTC(),
		}).Error
}

func (s *tenantService) UpdateInstanceStatus(ctx context.Context, instanceName, status string) error {
	return s.db.WithContext(ctx).Model(&instanceModel{}).
		Where("instance_name = ?", instanceName).
		Updates(map[string]any{
			"status":        status,
			"last_event_at": time.Now().UTC(),
		}).Error
}

func (s *tenantService) TouchInstance(ctx context.Context, instanceName string) error {
	return s.db.WithContext(ctx).Model(&instanceModel{}).
		Where("instance_name = ?", instanceName).
		Update("last_event_at", time.Now().UTC()).Error
}

// buildWebhookURL assembles the self-contained URL handed to the gateway at
// provisioning time: signature always (when a secret is configured), token
// only in URL-embedded mode.
func (s *tenantService) buildWebhookURL(ctx context.Context, workspaceID, instanceName string) (string, error) {
	q := url.Values{}
	q.Set("workspace_id", workspaceID)
	q.Set("instance", instanceName)
	if sig := s.signer.Sign(workspaceID, instanceName); sig != "" {
		q.Set("sig", sig)
	}
	if s.cfg.Webhook.CredentialMode == config.CredentialModeURL {
		token, err := s.ResolveForwardToken(ctx, workspaceID)
		if err != nil {
			return "", err
		}
		if token != "" {
			q.Set("api_token", token)
		}
	}
	return fmt.Sprintf("%s%s/webhook/inbound?%s",
		strings.TrimRight(s.cfg.App.BaseUrl, "/"), s.cfg.App.BasePath, q.Encode()), nil
}

func toWorkspace(m workspaceModel) domainTenant.Workspace {
	return domainTenant.Workspace{
		ID:        m.ID,
		Name:      m.Name,
		Enabled:   m.Enabled,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toInstance(m instanceModel) domainTenant.Instance {
	return domainTenant.Instance{
		ID:           m.ID,
		WorkspaceID:  m.WorkspaceID,
		InstanceName: m.InstanceName,
		Status:       m.Status,
		QRBase64:     m.QRBase64.String,
		LastEventAt:  m.LastEventAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
