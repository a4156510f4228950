// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/drand/kyber/share"
	"github.com/google/uuid"
)

// Decrypt failure steps, coarsest to finest. Step names double as exit
// diagnostics for the CLI.
const (
	StepDownload   = "download"
	StepParse      = "parse"
	StepBinding    = "binding"
	StepCredential = "credential"
	StepQuorum     = "quorum"
	StepCipher     = "cipher"
)

// DecryptError reports which step of the unlock flow failed.
type DecryptError struct {
	Step string
	Err  error
}

func (e *DecryptError) Error() string {
	return fmt.Sprintf("decrypt failed at %s: %v", e.Step, e.Err)
}

func (e *DecryptError) Unwrap() error { return e.Err }

// fetchKeyRequest is the POST /v1/fetch_key body. The wrapped share rides
// along because custodians hold no per-envelope state: they unwrap it,
// check the identifier binding, and re-wrap the bare share to enc_key.
type fetchKeyRequest struct {
	PTB                string      `json:"ptb"`
	EncKey             string      `json:"enc_key"`
	EncVerificationKey string      `json:"enc_verification_key"`
	RequestSignature   string      `json:"request_signature"`
	Certificate        Certificate `json:"certificate"`
	EncryptedShare     string      `json:"encrypted_share"`
	ShareIndex         uint16      `json:"share_index"`
}

type fetchKeyResponse struct {
	EncryptedShare string `json:"encrypted_share"`
	Error          string `json:"error,omitempty"`
}

// Endpoint maps a custodian object id to its key server URL.
type Endpoint struct {
	ObjectID string
	URL      string
}

// Decryptor drives the unlock flow: prove entitlement to each custodian in
// an envelope, collect a quorum of shares, recover the secret and open the
// ciphertext.
type Decryptor struct {
	HTTP      *http.Client
	Endpoints []Endpoint
	Timeout   time.Duration
}

func (d *Decryptor) endpointFor(objectID string) (string, bool) {
	for _, e := range d.Endpoints {
		if e.ObjectID == objectID {
			return e.URL, true
		}
	}
	return "", false
}

type fetchResult struct {
	share  *share.PriShare
	status int
	err    error
}

// Decrypt opens an envelope with a live session. listingID is the on-chain
// listing the caller believes the blob belongs to; a mismatch with the
// envelope's identifier fails before any custodian sees a request.
func (d *Decryptor) Decrypt(ctx context.Context, sess *Session, env *Envelope, listingID, marketplaceID string) ([]byte, error) {
	if !env.ID.MatchesListing(listingID) {
		return nil, &DecryptError{
			Step: StepBinding,
			Err:  fmt.Errorf("envelope is bound to listing %s, expected %s", env.ID.ListingID(), listingID),
		}
	}

	skeleton, err := ApproveSkeleton(env.ProgramID, env.ID, marketplaceID).Encode()
	if err != nil {
		return nil, &DecryptError{Step: StepParse, Err: err}
	}
	encPub, err := sess.EncPublicKey()
	if err != nil {
		return nil, &DecryptError{Step: StepCredential, Err: err}
	}
	reqSig := sess.SignRequest(skeleton, encPub)

	// Fan out to every custodian in the envelope; cancel stragglers as
	// soon as a quorum of shares is in hand.
	fanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan fetchResult, len(env.Shares))
	var wg sync.WaitGroup
	for _, cs := range env.Shares {
		url, ok := d.endpointFor(cs.ObjectID)
		if !ok {
			results <- fetchResult{err: fmt.Errorf("no endpoint configured for custodian %s", cs.ObjectID)}
			continue
		}
		wg.Add(1)
		go func(cs CustodianShare, url string) {
			defer wg.Done()
			results <- d.fetchShare(fanCtx, sess, url, fetchKeyRequest{
				PTB:                skeleton,
				EncKey:             encPub,
				EncVerificationKey: sess.Cert.SessionVK,
				RequestSignature:   reqSig,
				Certificate:        sess.Cert,
				EncryptedShare:     base64.StdEncoding.EncodeToString(cs.Wrapped),
				ShareIndex:         cs.Index,
			}, env.ID)
		}(cs, url)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var shares []*share.PriShare
	var unauthorized, rejected int
	var lastErr error
	for res := range results {
		switch {
		case res.err == nil:
			shares = append(shares, res.share)
			if len(shares) >= env.Threshold {
				cancel()
			}
		case res.status == http.StatusUnauthorized:
			unauthorized++
			lastErr = res.err
		case res.status == http.StatusForbidden:
			rejected++
			lastErr = res.err
		default:
			lastErr = res.err
		}
	}

	if len(shares) < env.Threshold {
		if unauthorized > 0 {
			return nil, &DecryptError{Step: StepCredential, Err: lastErr}
		}
		err := fmt.Errorf("%d of %d custodians released a share, need %d", len(shares), len(env.Shares), env.Threshold)
		if lastErr != nil {
			err = fmt.Errorf("%d of %d custodians released a share, need %d: last error: %w",
				len(shares), len(env.Shares), env.Threshold, lastErr)
		}
		return nil, &DecryptError{Step: StepQuorum, Err: err}
	}

	plaintext, err := env.Open(shares[:env.Threshold])
	if err != nil {
		return nil, &DecryptError{Step: StepCipher, Err: err}
	}
	return plaintext, nil
}

func (d *Decryptor) fetchShare(ctx context.Context, sess *Session, url string, body fetchKeyRequest, id Identifier) fetchResult {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return fetchResult{err: fmt.Errorf("encoding fetch_key request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/v1/fetch_key", bytes.NewReader(payload))
	if err != nil {
		return fetchResult{err: fmt.Errorf("building fetch_key request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Request-Id", uuid.NewString())

	resp, err := d.HTTP.Do(req)
	if err != nil {
		return fetchResult{err: fmt.Errorf("calling custodian %s: %w", url, err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fetchResult{status: resp.StatusCode, err: fmt.Errorf("reading custodian response: %w", err)}
	}

	var decoded fetchKeyResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fetchResult{status: resp.StatusCode, err: fmt.Errorf("custodian %s returned malformed response: %w", url, err)}
	}
	if resp.StatusCode != http.StatusOK {
		msg := decoded.Error
		if msg == "" {
			msg = string(raw)
		}
		return fetchResult{status: resp.StatusCode, err: fmt.Errorf("custodian %s refused: %s", url, msg)}
	}

	wrapped, err := base64.StdEncoding.DecodeString(decoded.EncryptedShare)
	if err != nil {
		return fetchResult{status: resp.StatusCode, err: fmt.Errorf("custodian %s returned malformed share: %w", url, err)}
	}
	ps, err := UnwrapShare(sess.encPriv, wrapped, id)
	if err != nil {
		return fetchResult{status: resp.StatusCode, err: fmt.Errorf("custodian %s share: %w", url, err)}
	}
	return fetchResult{share: ps, status: resp.StatusCode}
}
