// Package api implements the thin typed RPC wrappers over the REST surface
// named in §6: each function serializes a request struct, calls through the
// transport pipeline, and unwraps the `FilenResponse<T>` envelope into its
// typed payload or a *ferrors.ResponseError built from the envelope's own
// status/message/code fields (not just the HTTP status).
package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/filen-go/filen-sdk-go/ferrors"
	"github.com/filen-go/filen-sdk-go/transport"
)

// origin prefixes host with "https://" unless it already names a scheme —
// production host pools hold bare hostnames, but tests point a pool at a
// local httptest server's full "http://127.0.0.1:port" origin.
func origin(host string) string {
	if strings.Contains(host, "://") {
		return host
	}
	return "https://" + host
}

// Envelope is the common response wrapper every gateway endpoint returns
// (§6): {status, message, code, data}.
type Envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Data    T      `json:"data"`
}

// Client issues typed calls against the gateway host pool.
type Client struct {
	transport *transport.Client
	gateway   transport.HostPool
	ingest    transport.HostPool
	egest     transport.HostPool
}

// New builds an api.Client over the given transport and host pools.
func New(t *transport.Client, gateway, ingest, egest transport.HostPool) *Client {
	return &Client{transport: t, gateway: gateway, ingest: ingest, egest: egest}
}

func post[T any](ctx context.Context, c *Client, path string, body any, unauthenticated bool) (T, error) {
	var env Envelope[T]
	url := fmt.Sprintf("%s/%s", origin(c.gateway.Pick()), path)
	err := c.transport.PostJSON(ctx, url, body, &env, unauthenticated)
	var zero T
	if err != nil {
		return zero, err
	}
	if !env.Status {
		return zero, &ferrors.ResponseError{Endpoint: path, Code: env.Code, Message: env.Message}
	}
	return env.Data, nil
}

// LoginRequest is the body of v3/login.
type LoginRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	TwoFactorCode string `json:"twoFactorCode,omitempty"`
}

// LoginResponse is the data payload of v3/login.
type LoginResponse struct {
	APIKey     string  `json:"apiKey"`
	MasterKeys *string `json:"masterKeys,omitempty"`
	PublicKey  *string `json:"publicKey,omitempty"`
	PrivateKey *string `json:"privateKey,omitempty"`
	DEK        *string `json:"dek,omitempty"`
}

// Login calls v3/login.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	return post[LoginResponse](ctx, c, "v3/login", req, true)
}

// AuthInfoRequest is the body of v3/auth/info.
type AuthInfoRequest struct {
	Email string `json:"email"`
}

// AuthInfoResponse is the data payload of v3/auth/info.
type AuthInfoResponse struct {
	AuthVersion int    `json:"authVersion"`
	Salt        string `json:"salt"`
}

// AuthInfo calls v3/auth/info.
func (c *Client) AuthInfo(ctx context.Context, req AuthInfoRequest) (AuthInfoResponse, error) {
	return post[AuthInfoResponse](ctx, c, "v3/auth/info", req, true)
}

// UploadChunkResponse is returned by each v3/upload chunk POST.
type UploadChunkResponse struct {
	Bucket string `json:"bucket"`
	Region string `json:"region"`
}

// UploadChunkParams names the query parameters of a v3/upload chunk POST
// (§4.6).
type UploadChunkParams struct {
	UUID      string
	Index     int
	Parent    string
	UploadKey string
	HashHex   string
}

// UploadChunk POSTs one ciphertext chunk to a randomly chosen ingest host.
func (c *Client) UploadChunk(ctx context.Context, p UploadChunkParams, ciphertext []byte) (UploadChunkResponse, error) {
	url := fmt.Sprintf("%s/v3/upload?uuid=%s&index=%d&parent=%s&uploadKey=%s&hash=%s",
		origin(c.ingest.Pick()), p.UUID, p.Index, p.Parent, p.UploadKey, p.HashHex)

	var env Envelope[UploadChunkResponse]
	if err := c.transport.PostRaw(ctx, url, ciphertext, &env); err != nil {
		return UploadChunkResponse{}, err
	}
	if !env.Status {
		return UploadChunkResponse{}, &ferrors.ResponseError{Endpoint: "v3/upload", Code: env.Code, Message: env.Message}
	}
	return env.Data, nil
}

// UploadDoneRequest is the body of v3/upload/done and v3/upload/empty.
type UploadDoneRequest struct {
	UUID       string `json:"uuid"`
	UploadKey  string `json:"uploadKey"`
	Chunks     int64  `json:"chunks"`
	Metadata   string `json:"metadata"`
	Name       string `json:"name"`
	NameHashed string `json:"nameHashed"`
	Parent     string `json:"parent"`
	Mime       string `json:"mime,omitempty"`
	Size       int64  `json:"size"`
}

// UploadDone finalizes a non-empty upload.
func (c *Client) UploadDone(ctx context.Context, req UploadDoneRequest) error {
	_, err := post[struct{}](ctx, c, "v3/upload/done", req, false)
	return err
}

// UploadEmpty finalizes a zero-length upload, skipping the chunk POST
// step entirely (§4.6).
func (c *Client) UploadEmpty(ctx context.Context, req UploadDoneRequest) error {
	_, err := post[struct{}](ctx, c, "v3/upload/empty", req, false)
	return err
}

// DirContentRequest is the body of v3/dir/content.
type DirContentRequest struct {
	UUID string `json:"uuid"`
}

// RawFile and RawFolder are the wire shapes inside DirContentResponse; the
// caller decrypts Name/Metadata through meta and keys.
type RawFile struct {
	UUID          string `json:"uuid"`
	Parent        string `json:"parent"`
	Region        string `json:"region"`
	Bucket        string `json:"bucket"`
	Name          string `json:"name"`
	NameHashed    string `json:"nameHashed"`
	Metadata      string `json:"metadata"`
	Chunks        int64  `json:"chunks"`
	Size          int64  `json:"size"`
	Favorited     bool   `json:"favorited"`
	Trash         bool   `json:"trash"`
	Versioned     bool   `json:"versioned"`
	Version       int    `json:"version"`
}

type RawFolder struct {
	UUID      string `json:"uuid"`
	Parent    string `json:"parent"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	Favorited bool   `json:"favorited"`
}

// DirContentResponse is the data payload of v3/dir/content.
type DirContentResponse struct {
	Uploads []RawFile   `json:"uploads"`
	Folders []RawFolder `json:"folders"`
}

// DirContent calls v3/dir/content.
func (c *Client) DirContent(ctx context.Context, uuid string) (DirContentResponse, error) {
	return post[DirContentResponse](ctx, c, "v3/dir/content", DirContentRequest{UUID: uuid}, false)
}

// ItemType discriminates whether an item-scoped call targets a file or a
// directory.
type ItemType string

const (
	ItemTypeFile ItemType = "file"
	ItemTypeDir  ItemType = "folder"
)

// FavoriteRequest is the body of v3/item/favorite.
type FavoriteRequest struct {
	UUID  string   `json:"uuid"`
	Type  ItemType `json:"type"`
	Value bool     `json:"value"`
}

// ItemFavorite sets or clears an item's favorited flag (idempotent).
func (c *Client) ItemFavorite(ctx context.Context, req FavoriteRequest) error {
	_, err := post[struct{}](ctx, c, "v3/item/favorite", req, false)
	return err
}

// LockType discriminates a v3/user/lock request's intent.
type LockType string

const (
	LockTypeAcquire LockType = "acquire"
	LockTypeRelease LockType = "release"
)

// LockRequest is the body of v3/user/lock.
type LockRequest struct {
	UUID     string   `json:"uuid"`
	Type     LockType `json:"type"`
	Resource string   `json:"resource"`
}

// LockResponse is the data payload of v3/user/lock. Only Acquired is
// meaningful on a response to an Acquire request; only Released is
// meaningful on a response to a Release request.
type LockResponse struct {
	Acquired bool `json:"acquired"`
	Released bool `json:"released"`
}

// UserLock calls v3/user/lock.
func (c *Client) UserLock(ctx context.Context, req LockRequest) (LockResponse, error) {
	return post[LockResponse](ctx, c, "v3/user/lock", req, false)
}

// TrashRequest is the shared body shape of v3/dir/trash and v3/file/trash.
type TrashRequest struct {
	UUID string `json:"uuid"`
}

// DirTrash moves a directory to the trash.
func (c *Client) DirTrash(ctx context.Context, uuid string) error {
	_, err := post[struct{}](ctx, c, "v3/dir/trash", TrashRequest{UUID: uuid}, false)
	return err
}

// FileTrash moves a file to the trash.
func (c *Client) FileTrash(ctx context.Context, uuid string) error {
	_, err := post[struct{}](ctx, c, "v3/file/trash", TrashRequest{UUID: uuid}, false)
	return err
}

// MoveRequest is the shared body shape of v3/dir/move and v3/file/move.
type MoveRequest struct {
	UUID   string `json:"uuid"`
	Parent string `json:"parent"`
}

// DirMove moves a directory to a new parent.
func (c *Client) DirMove(ctx context.Context, req MoveRequest) error {
	_, err := post[struct{}](ctx, c, "v3/dir/move", req, false)
	return err
}

// FileMove moves a file to a new parent.
func (c *Client) FileMove(ctx context.Context, req MoveRequest) error {
	_, err := post[struct{}](ctx, c, "v3/file/move", req, false)
	return err
}

// TrashEmpty permanently deletes everything in the trash.
func (c *Client) TrashEmpty(ctx context.Context) error {
	_, err := post[struct{}](ctx, c, "v3/trash/empty", struct{}{}, false)
	return err
}

// BaseFolderResponse is the data payload of v3/user/baseFolder, supplemented
// from original_source (every session needs the root directory UUID to
// bootstrap dir/content calls).
type BaseFolderResponse struct {
	UUID string `json:"uuid"`
}

// BaseFolder fetches the account's root directory UUID.
func (c *Client) BaseFolder(ctx context.Context) (BaseFolderResponse, error) {
	return post[BaseFolderResponse](ctx, c, "v3/user/baseFolder", struct{}{}, false)
}

// DirSizeRequest is the body of v3/dir/size, supplemented from
// original_source.
type DirSizeRequest struct {
	UUID string `json:"uuid"`
}

// DirSizeResponse is the data payload of v3/dir/size.
type DirSizeResponse struct {
	Size   int64 `json:"size"`
	Files  int64 `json:"files"`
	Dirs   int64 `json:"folders"`
}

// DirSize fetches the aggregate size of a directory subtree.
func (c *Client) DirSize(ctx context.Context, uuid string) (DirSizeResponse, error) {
	return post[DirSizeResponse](ctx, c, "v3/dir/size", DirSizeRequest{UUID: uuid}, false)
}

// FileExistsRequest is the body of v3/file/exists, supplemented from
// original_source (used to detect name collisions before upload).
type FileExistsRequest struct {
	Parent     string `json:"parent"`
	NameHashed string `json:"nameHashed"`
}

// FileExistsResponse is the data payload of v3/file/exists.
type FileExistsResponse struct {
	Exists bool   `json:"exists"`
	UUID   string `json:"uuid,omitempty"`
}

// FileExists checks whether a name hash already exists under a parent.
func (c *Client) FileExists(ctx context.Context, req FileExistsRequest) (FileExistsResponse, error) {
	return post[FileExistsResponse](ctx, c, "v3/file/exists", req, false)
}

// EgestURL builds the chunk-download URL for a file (§6): GET
// https://<egest-host>/<region>/<bucket>/<file-uuid>/<chunk-index>.
func (c *Client) EgestURL(region, bucket, uuid string, index int64) string {
	return fmt.Sprintf("%s/%s/%s/%s/%d", origin(c.egest.Pick()), region, bucket, uuid, index)
}

// EgestHosts returns all egest hosts in the order HostPool.Shuffled gives.
// The download engine uses it only to check that at least one egest host is
// configured; each chunk URL's host is picked by EgestURL.
func (c *Client) EgestHosts() []string {
	return c.egest.Shuffled()
}

// GetRaw is exposed for the download engine to issue the chunk GET itself
// (bandwidth-limited, retried) while api.Client owns URL construction.
func (c *Client) GetRaw(ctx context.Context, url string) ([]byte, error) {
	return c.transport.GetRaw(ctx, url)
}
