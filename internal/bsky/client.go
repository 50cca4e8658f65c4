// Package bsky is a minimal atproto XRPC client covering exactly what the
// poster needs: session creation, blob upload, and image-post records.
package bsky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultHost is the public Bluesky PDS entrypoint.
const DefaultHost = "https://bsky.social"

const (
	createSessionNSID = "com.atproto.server.createSession"
	uploadBlobNSID    = "com.atproto.repo.uploadBlob"
	createRecordNSID  = "com.atproto.repo.createRecord"

	postCollection  = "app.bsky.feed.post"
	imagesEmbedType = "app.bsky.embed.images"
)

// ErrNotLoggedIn reports a call that needs a session before Login succeeded.
var ErrNotLoggedIn = errors.New("not logged in")

// Client talks XRPC to a single PDS host. It is not safe for concurrent
// use; the poster runs strictly sequentially.
type Client struct {
	host string
	hc   *http.Client

	accessJwt string
	did       string
}

// NewClient builds a client for the given host (empty = public entrypoint).
func NewClient(host string, timeout time.Duration) *Client {
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		host: strings.TrimRight(host, "/"),
		hc:   &http.Client{Timeout: timeout},
	}
}

// ImagePost is a single-image post: caption text, the encoded JPEG, and
// its alt text. Width/Height, when set, are sent as the embed aspect ratio.
type ImagePost struct {
	Text   string
	Alt    string
	JPEG   []byte
	Width  int
	Height int
}

type session struct {
	AccessJwt string `json:"accessJwt"`
	Did       string `json:"did"`
	Handle    string `json:"handle"`
}

// Login establishes a session with the account handle and app password.
func (c *Client) Login(ctx context.Context, identifier, appPassword string) error {
	body, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"password":   appPassword,
	})
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	var ses session
	if err := c.procedure(ctx, createSessionNSID, "application/json", bytes.NewReader(body), &ses); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if ses.AccessJwt == "" || ses.Did == "" {
		return fmt.Errorf("create session: incomplete response")
	}

	c.accessJwt = ses.AccessJwt
	c.did = ses.Did
	return nil
}

// DID returns the account DID established by Login.
func (c *Client) DID() string { return c.did }

type blobResponse struct {
	// Blob is the server's blob ref, passed through opaquely into the
	// record so ref/cid details never need decoding here.
	Blob json.RawMessage `json:"blob"`
}

type aspectRatio struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type embeddedImage struct {
	Alt         string          `json:"alt"`
	Image       json.RawMessage `json:"image"`
	AspectRatio *aspectRatio    `json:"aspectRatio,omitempty"`
}

type imagesEmbed struct {
	Type   string          `json:"$type"`
	Images []embeddedImage `json:"images"`
}

type postRecord struct {
	Type      string       `json:"$type"`
	Text      string       `json:"text"`
	CreatedAt string       `json:"createdAt"`
	Embed     *imagesEmbed `json:"embed,omitempty"`
}

type createRecordRequest struct {
	Repo       string     `json:"repo"`
	Collection string     `json:"collection"`
	Record     postRecord `json:"record"`
}

type createRecordResponse struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// PostImage uploads the JPEG as a blob and publishes a post embedding it.
// It returns the AT URI of the created record.
func (c *Client) PostImage(ctx context.Context, post ImagePost) (string, error) {
	if c.accessJwt == "" {
		return "", ErrNotLoggedIn
	}

	var blob blobResponse
	if err := c.procedure(ctx, uploadBlobNSID, "image/jpeg", bytes.NewReader(post.JPEG), &blob); err != nil {
		return "", fmt.Errorf("upload blob: %w", err)
	}
	if len(blob.Blob) == 0 {
		return "", fmt.Errorf("upload blob: empty blob ref in response")
	}

	img := embeddedImage{Alt: post.Alt, Image: blob.Blob}
	if post.Width > 0 && post.Height > 0 {
		img.AspectRatio = &aspectRatio{Width: post.Width, Height: post.Height}
	}

	body, err := json.Marshal(createRecordRequest{
		Repo:       c.did,
		Collection: postCollection,
		Record: postRecord{
			Type:      postCollection,
			Text:      post.Text,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
			Embed: &imagesEmbed{
				Type:   imagesEmbedType,
				Images: []embeddedImage{img},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	var created createRecordResponse
	if err := c.procedure(ctx, createRecordNSID, "application/json", bytes.NewReader(body), &created); err != nil {
		return "", fmt.Errorf("create record: %w", err)
	}
	return created.URI, nil
}

// procedure POSTs one XRPC call and decodes the JSON response into out.
func (c *Client) procedure(ctx context.Context, nsid, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/xrpc/"+nsid, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessJwt)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", nsid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s: %s: %s", nsid, resp.Status, strings.TrimSpace(string(payload)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", nsid, err)
	}
	return nil
}
