package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"

	"sundsvall.se/integration-eneo/internal/core"
	"sundsvall.se/integration-eneo/internal/files"
	"sundsvall.se/integration-eneo/internal/reference"
	"sundsvall.se/integration-eneo/internal/store"
)

// Settings is the typed configuration the handlers read and write.
type Settings interface {
	AdminConfig(ctx context.Context) (*core.AdminConfig, error)
	SetAdminValues(ctx context.Context, values map[string]string) error
	UserConfig(ctx context.Context, uid string) (*core.UserConfig, error)
	RawUserConfig(ctx context.Context, uid string) (map[string]string, error)
	SetUserValues(ctx context.Context, uid string, values map[string]string) error
	Capabilities(ctx context.Context) (map[string]core.Capability, error)
}

// EneoClient is the outbound API.
type EneoClient interface {
	SendChatMessage(ctx context.Context, uid, message string, msgContext map[string]any) (json.RawMessage, error)
	IndexFile(ctx context.Context, uid, fileID, filePath, content string) (json.RawMessage, error)
	GetIndexedFiles(ctx context.Context, uid string) (json.RawMessage, error)
	TestConnection(ctx context.Context) bool
}

type FileStorage interface {
	GetByID(ctx context.Context, uid string, fileID int64) (*files.Node, error)
	ReadContent(uid string, node *files.Node) (string, error)
}

type ReferenceRegistry interface {
	Providers() []reference.Provider
	Resolve(text string) *reference.Reference
}

type Accounts interface {
	CreateUser(ctx context.Context, uid, password string, isAdmin bool) (*store.User, error)
	Login(ctx context.Context, uid, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*store.User, error)
	DeleteUser(ctx context.Context, uid string) (bool, error)
}

type OAuthFlow interface {
	AuthCodeURL(ctx context.Context, uid string) (string, error)
	Exchange(ctx context.Context, uid, state, code string) error
	RedirectURL() string
}

type APIHandler struct {
	settings   Settings
	eneo       EneoClient
	files      FileStorage
	references ReferenceRegistry
	accounts   Accounts
	oauth      OAuthFlow
	logger     *log.Logger
}

type Deps struct {
	Settings   Settings
	Eneo       EneoClient
	Files      FileStorage
	References ReferenceRegistry
	Accounts   Accounts
	OAuth      OAuthFlow
	Logger     *log.Logger
}

func NewAPIHandler(d Deps) *APIHandler {
	return &APIHandler{
		settings:   d.Settings,
		eneo:       d.Eneo,
		files:      d.Files,
		references: d.References,
		accounts:   d.Accounts,
		oauth:      d.OAuth,
		logger:     d.Logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeRaw passes a remote JSON document through unchanged.
func writeRaw(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
