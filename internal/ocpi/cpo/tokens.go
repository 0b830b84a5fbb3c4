package cpo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	masterdata "chargenet-cloud/internal/masterdata/domain"
	ocpi "chargenet-cloud/internal/ocpi/domain"
	"chargenet-cloud/internal/ocpi/mapper"
	"chargenet-cloud/internal/ocpi/transport"
)

// partialPullWindow bounds a partial token pull to recent changes.
const partialPullWindow = time.Hour

// PullTokens follows the remote token feed page by page and folds each token
// into the local tag store. With partial set, only tokens updated inside the
// last hour are requested. Per-item failures are tallied, never rethrown.
func (c *Client) PullTokens(ctx context.Context, partial bool) (*Result, error) {
	result := &Result{}

	pageURL, err := transport.WithPageSize(c.tokensURL(), 0, c.pageSize)
	if err != nil {
		return nil, err
	}
	if partial {
		pageURL, err = withDateFrom(pageURL, c.clock.Now().Add(-partialPullWindow))
		if err != nil {
			return nil, err
		}
	}

	for pageURL != "" {
		resp, err := c.transport.Get(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("pull tokens page: %w", err)
		}
		var tokens []ocpi.Token
		if err := resp.Decode(&tokens); err != nil {
			return nil, fmt.Errorf("decode tokens page: %w", err)
		}

		uids := make([]string, 0, len(tokens))
		for _, token := range tokens {
			uids = append(uids, token.UID)
		}
		existing, err := c.tags.GetByIDs(ctx, c.tenant.ID, uids)
		if err != nil {
			return nil, fmt.Errorf("load tags: %w", err)
		}

		forEachBounded(ctx, tokens, c.concurrency, func(ctx context.Context, token ocpi.Token) {
			if err := c.updateToken(ctx, &token, existing[token.UID]); err != nil {
				result.RecordFailure(token.UID, err)
				return
			}
			result.RecordSuccess()
		})

		pageURL = transport.NextPage(pageURL, resp.Header)
	}

	c.logger.Printf("ocpi tokens pulled: tenant=%s endpoint=%s success=%d failure=%d",
		c.tenant.ID, c.endpoint.ID, result.Success(), result.Failure())
	return result, nil
}

// updateToken validates one token and upserts its tag. Mappings are rejected
// when the matched user is locally issued or the matched tag already belongs
// to the local organization; identity conflicts are never auto-merged.
func (c *Client) updateToken(ctx context.Context, token *ocpi.Token, existingTag *masterdata.Tag) error {
	if err := mapper.ValidateToken(token); err != nil {
		return err
	}
	if existingTag != nil && existingTag.Issuer {
		return ocpi.ErrTagAlreadyLocal
	}

	user, err := c.findOrCreateTokenUser(ctx, token)
	if err != nil {
		return err
	}
	if user.Issuer {
		return ocpi.ErrUserAlreadyIssued
	}

	tag, err := mapper.BuildTagFromToken(token, c.tenant.ID, user.ID)
	if err != nil {
		return err
	}
	return c.tags.Save(ctx, tag)
}

// findOrCreateTokenUser resolves the external virtual user all tokens of one
// issuer hang off, creating it on first sight.
func (c *Client) findOrCreateTokenUser(ctx context.Context, token *ocpi.Token) (*masterdata.User, error) {
	email := mapper.VirtualUserEmail(token.Issuer, c.endpoint.PartyID, c.endpoint.CountryCode)
	user, err := c.users.GetByEmail(ctx, c.tenant.ID, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, masterdata.ErrUserNotFound) {
		return nil, err
	}
	user = &masterdata.User{
		TenantID:  c.tenant.ID,
		Name:      token.Issuer,
		Email:     email,
		Issuer:    false,
		Status:    masterdata.UserStatusActive,
		CreatedAt: c.clock.Now(),
	}
	if err := c.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func withDateFrom(rawURL string, from time.Time) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("date_from", from.UTC().Format(time.RFC3339))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
