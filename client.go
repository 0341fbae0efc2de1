// Package filen is the top-level facade of the SDK: Client ties together
// the transport pipeline, key hierarchy, chunk pool, and upload/download
// engines behind the single entry point a consuming application imports,
// grounded on the teacher's internal/service.ClientServices aggregate
// (client_services.go) — one struct wiring every sub-service together
// behind a constructor, rather than scattering globals.
package filen

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/filen-go/filen-sdk-go/api"
	"github.com/filen-go/filen-sdk-go/chunkpool"
	sdkcrypto "github.com/filen-go/filen-sdk-go/crypto"
	"github.com/filen-go/filen-sdk-go/download"
	"github.com/filen-go/filen-sdk-go/ferrors"
	"github.com/filen-go/filen-sdk-go/filenlog"
	"github.com/filen-go/filen-sdk-go/keys"
	"github.com/filen-go/filen-sdk-go/meta"
	"github.com/filen-go/filen-sdk-go/model"
	"github.com/filen-go/filen-sdk-go/socket"
	"github.com/filen-go/filen-sdk-go/transport"
	"github.com/filen-go/filen-sdk-go/upload"
)

// Client is the authenticated session described in §3: API key, auth info,
// RSA key pair, root directory identifier, transport stack, chunk pool,
// and (lazily started) socket handle.
type Client struct {
	email string

	authMu sync.RWMutex
	auth   keys.AuthInfo

	rsaPriv *rsa.PrivateKey
	rsaPub  *rsa.PublicKey

	nameHasher meta.NameHasher
	rootUUID   string

	transport *transport.Client
	api       *api.Client
	pool      *chunkpool.Pool

	Upload   *upload.Engine
	Download *download.Engine

	socketURL string
	socketMu  sync.Mutex
	sock      *socket.Socket

	log *filenlog.Logger
}

// Login authenticates against the gateway and returns a ready-to-use
// Client. It performs the two-step handshake spec.md §6 describes:
// v3/auth/info to learn the account's auth version and salt, then v3/login
// with the derived password hash.
//
// v1 accounts cannot log in fresh through this SDK (they have no
// server-supplied salt to authenticate a new session against) — restore
// them via FromConfigString instead. See keys.AuthInfoV1's doc comment.
func Login(ctx context.Context, email, password, twoFACode string, opts ClientOptions) (*Client, error) {
	opts = opts.Defaulted()

	transportClient := opts.Transport()
	apiClient := api.New(transportClient, opts.Gateway, opts.Ingest, opts.Egest)

	infoResp, err := apiClient.AuthInfo(ctx, api.AuthInfoRequest{Email: email})
	if err != nil {
		return nil, err
	}

	authVersion := keys.AuthVersion(infoResp.AuthVersion)
	salt := []byte(infoResp.Salt)

	switch authVersion {
	case keys.AuthV3:
		return loginV3(ctx, apiClient, transportClient, email, password, twoFACode, salt, opts)
	case keys.AuthV2:
		return loginV2(ctx, apiClient, transportClient, email, password, twoFACode, salt, opts)
	default:
		return nil, &ferrors.InvalidStateError{
			Reason: fmt.Sprintf("auth version %d cannot log in fresh; restore it from a persisted config instead", authVersion),
		}
	}
}

func loginV3(ctx context.Context, apiClient *api.Client, transportClient *transport.Client, email, password, twoFACode string, salt []byte, opts ClientOptions) (*Client, error) {
	d, err := sdkcrypto.DeriveV3(password, salt)
	if err != nil {
		return nil, err
	}

	loginResp, err := apiClient.Login(ctx, api.LoginRequest{
		Email:         email,
		Password:      d.PasswordHash,
		TwoFactorCode: twoFACode,
	})
	if err != nil {
		return nil, err
	}
	if loginResp.DEK == nil {
		return nil, &ferrors.ResponseError{Endpoint: "v3/login", Message: "missing dek in v3 login response"}
	}

	auth, err := keys.NewAuthInfoV3(password, salt, keys.EncryptedString(*loginResp.DEK))
	if err != nil {
		return nil, err
	}

	return finishLogin(ctx, apiClient, transportClient, email, auth, loginResp, opts)
}

func loginV2(ctx context.Context, apiClient *api.Client, transportClient *transport.Client, email, password, twoFACode string, salt []byte, opts ClientOptions) (*Client, error) {
	auth, err := keys.NewAuthInfoV2(password, salt)
	if err != nil {
		return nil, err
	}

	loginResp, err := apiClient.Login(ctx, api.LoginRequest{
		Email:         email,
		Password:      auth.PasswordHash(),
		TwoFactorCode: twoFACode,
	})
	if err != nil {
		return nil, err
	}

	if loginResp.MasterKeys != nil {
		appendHistoricalMasterKeys(auth.MasterKeys(), *loginResp.MasterKeys)
	}

	return finishLogin(ctx, apiClient, transportClient, email, auth, loginResp, opts)
}

// appendHistoricalMasterKeys decodes the pipe-delimited list of prior master
// keys the server returns after a password change and appends each,
// oldest-first, so metadata encrypted under an earlier password still
// decrypts (§4.2: "MasterKeys ... preserves access after a password
// change"). A segment that isn't exactly 32 bytes is skipped rather than
// treated as fatal — a stray delimiter should not break login.
func appendHistoricalMasterKeys(mk *keys.MasterKeys, blob string) {
	for _, segment := range strings.Split(blob, "|") {
		if len(segment) != 32 {
			continue
		}
		var key [32]byte
		copy(key[:], segment)
		mk.Append(key)
	}
}

func finishLogin(ctx context.Context, apiClient *api.Client, transportClient *transport.Client, email string, auth keys.AuthInfo, loginResp api.LoginResponse, opts ClientOptions) (*Client, error) {
	transportClient.SetAPIKey(loginResp.APIKey)

	c := &Client{
		email:      email,
		auth:       auth,
		nameHasher: meta.NewV2NameHasher(),
		transport:  transportClient,
		api:        apiClient,
		pool:       opts.ChunkPool(),
		socketURL:  opts.SocketURL,
		log:        opts.Logger,
	}
	c.Upload = upload.New(apiClient, c.pool, c.log)
	c.Download = download.New(apiClient, c.pool, c.log)

	if loginResp.PrivateKey != nil && loginResp.PublicKey != nil {
		priv, pub, err := keys.RSAKeyPairFromMeta(auth, keys.EncryptedString(*loginResp.PrivateKey), *loginResp.PublicKey)
		if err != nil {
			return nil, err
		}
		c.rsaPriv, c.rsaPub = priv, pub
		if auth.Version() == keys.AuthV3 {
			if hasher, err := meta.NewV3NameHasher(priv); err == nil {
				c.nameHasher = hasher
			}
		}
	}

	baseFolder, err := apiClient.BaseFolder(ctx)
	if err != nil {
		return nil, err
	}
	c.rootUUID = baseFolder.UUID

	return c, nil
}

// Email returns the authenticated account's email address.
func (c *Client) Email() string { return c.email }

// RootUUID returns the account's base (root) directory UUID.
func (c *Client) RootUUID() string { return c.rootUUID }

// RSAPublicKey returns the account's RSA public key, or nil if the account
// has none provisioned (e.g. restored from a config string that omitted it).
func (c *Client) RSAPublicKey() *rsa.PublicKey { return c.rsaPub }

// MetaCrypter returns the current metadata crypter, safe to call
// concurrently with API key rotation (auth itself never rotates mid
// session, only the bearer token does — see SetAPIKey).
func (c *Client) MetaCrypter() keys.MetaCrypter {
	c.authMu.RLock()
	defer c.authMu.RUnlock()
	return c.auth
}

// NameHasher returns the name hasher matching the account's auth version.
func (c *Client) NameHasher() meta.NameHasher { return c.nameHasher }

// SetAPIKey rotates the bearer token used for subsequent requests (§3: "API
// key (rotatable)").
func (c *Client) SetAPIKey(key string) {
	c.transport.SetAPIKey(key)
}

// API exposes the underlying typed RPC client for operations this facade
// does not wrap directly (favorite/trash/move/lock/etc. — §6).
func (c *Client) API() *api.Client { return c.api }

// Socket returns the account's event socket (§4.8), constructing it lazily
// on first use; it connects only when its first listener subscribes. The
// socket is shared for the Client's lifetime; callers Subscribe/unsubscribe
// independently.
func (c *Client) Socket() *socket.Socket {
	c.socketMu.Lock()
	defer c.socketMu.Unlock()
	if c.sock == nil {
		c.sock = socket.New(c.socketURL, c.transport.APIKey(), c.MetaCrypter(), c.log)
	}
	return c.sock
}

// DirContent lists the files and folders directly under uuid, decoding raw
// server records into model.File/model.Directory. Each file's FileKey is
// read from its metadata, decrypted through the Client's MetaCrypter.
func (c *Client) DirContent(ctx context.Context, uuid string) ([]model.File, []model.Directory, error) {
	resp, err := c.api.DirContent(ctx, uuid)
	if err != nil {
		return nil, nil, err
	}

	crypter := c.MetaCrypter()
	files := make([]model.File, 0, len(resp.Uploads))
	for _, raw := range resp.Uploads {
		if crypter == nil {
			return nil, nil, &ferrors.InvalidStateError{Reason: "no metadata crypter to decrypt file metadata"}
		}
		fileMeta, err := meta.DecryptFileMetadata(crypter, keys.EncryptedString(raw.Metadata))
		if err != nil {
			return nil, nil, err
		}
		key, err := keys.ParseFileKey(fileMeta.Key)
		if err != nil {
			return nil, nil, err
		}
		files = append(files, model.File{
			UUID:              raw.UUID,
			ParentUUID:        raw.Parent,
			Region:            raw.Region,
			Bucket:            raw.Bucket,
			EncryptedName:     keys.EncryptedString(raw.Name),
			NameHashed:        raw.NameHashed,
			EncryptedMeta:     keys.EncryptedString(raw.Metadata),
			Chunks:            raw.Chunks,
			Size:              raw.Size,
			Key:               *key,
			Favorited:         raw.Favorited,
			Trash:             raw.Trash,
			Versioned:         raw.Versioned,
			EncryptionVersion: raw.Version,
		})
	}

	dirs := make([]model.Directory, 0, len(resp.Folders))
	for _, raw := range resp.Folders {
		var color *string
		if raw.Color != "" {
			color = &raw.Color
		}
		dirs = append(dirs, model.Directory{
			UUID:          raw.UUID,
			Parent:        model.ParentOf(raw.Parent),
			EncryptedMeta: keys.EncryptedString(raw.Name),
			Color:         color,
			Favorited:     raw.Favorited,
		})
	}

	return files, dirs, nil
}

// persistedConfig is the inner JSON object of the auth-config serialization
// format (§6): "filen_cli_auth_config_1:" + base64(json(...)).
type persistedConfig struct {
	Email             string `json:"email"`
	APIKey            string `json:"apiKey"`
	AuthVersion       int    `json:"authVersion"`
	Salt              string `json:"salt,omitempty"`
	MasterKeys        string `json:"masterKeys,omitempty"`
	EncryptedDEK      string `json:"dek,omitempty"`
	PublicKey         string `json:"publicKey,omitempty"`
	EncryptedPrivate  string `json:"privateKey,omitempty"`
	RootUUID          string `json:"rootUuid,omitempty"`
}

const configPrefix = "filen_cli_auth_config_1:"

// ToConfigString serializes the session for CLI-style persistence, in the
// "filen_cli_auth_config_1:" + base64(json(...)) format of §6. It writes the
// email, API key, auth version, root directory UUID and, when present, the
// RSA public key. It does not write master keys, the DEK or the private
// key, so a Client restored by FromConfigString has no MetaCrypter until
// one is attached with WithMetaCrypter.
func (c *Client) ToConfigString() (string, error) {
	cfg := persistedConfig{
		Email:       c.email,
		APIKey:      c.transport.APIKey(),
		AuthVersion: int(c.auth.Version()),
		RootUUID:    c.rootUUID,
	}
	if c.rsaPub != nil {
		pub, err := sdkcrypto.EncodePublicKeySPKI(c.rsaPub)
		if err != nil {
			return "", err
		}
		cfg.PublicKey = pub
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return configPrefix + base64.StdEncoding.EncodeToString(raw), nil
}

// FromConfigString restores a Client from a string produced by
// ToConfigString, without re-deriving keys from a password. Only the
// session fields captured at persist time are restored; callers needing a
// MetaCrypter after restore should supply one via WithMetaCrypter, since
// a v1/v2 MasterKeys or v3 DEK are not reconstructable from the API key
// alone.
func FromConfigString(s string, opts ClientOptions) (*Client, error) {
	opts = opts.Defaulted()

	rest, ok := strings.CutPrefix(s, configPrefix)
	if !ok {
		return nil, &ferrors.InvalidStateError{Reason: "config string missing filen_cli_auth_config_1: prefix"}
	}

	raw, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return nil, ferrors.NewConversionError(ferrors.KindBase64Decode, "config string", err)
	}

	var cfg persistedConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	transportClient := opts.Transport()
	transportClient.SetAPIKey(cfg.APIKey)
	apiClient := api.New(transportClient, opts.Gateway, opts.Ingest, opts.Egest)

	c := &Client{
		email:      cfg.Email,
		nameHasher: meta.NewV2NameHasher(),
		transport:  transportClient,
		api:        apiClient,
		pool:       opts.ChunkPool(),
		rootUUID:   cfg.RootUUID,
		socketURL:  opts.SocketURL,
		log:        opts.Logger,
	}
	c.Upload = upload.New(apiClient, c.pool, c.log)
	c.Download = download.New(apiClient, c.pool, c.log)

	if cfg.PublicKey != "" {
		pub, err := sdkcrypto.DecodePublicKeySPKI(cfg.PublicKey)
		if err != nil {
			return nil, err
		}
		c.rsaPub = pub
	}

	return c, nil
}

// WithMetaCrypter attaches a MetaCrypter obtained out of band (e.g. a
// password re-prompt flow) to a Client restored via FromConfigString.
func (c *Client) WithMetaCrypter(crypter keys.MetaCrypter) {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	if a, ok := crypter.(keys.AuthInfo); ok {
		c.auth = a
	} else {
		c.auth = wrappedMetaCrypter{crypter}
	}
}

// wrappedMetaCrypter adapts a bare MetaCrypter (no Version/PasswordHash) to
// the keys.AuthInfo interface Client.auth holds, for the restore-without-
// password path where only decrypt/encrypt capability is available.
type wrappedMetaCrypter struct {
	keys.MetaCrypter
}

func (wrappedMetaCrypter) Version() keys.AuthVersion { return keys.AuthV3 }
func (wrappedMetaCrypter) PasswordHash() string       { return "" }
