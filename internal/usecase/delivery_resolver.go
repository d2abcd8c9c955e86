package usecase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"digital-storefront/internal/domain/model"
)

// ResolveKind is the governing delivery table. A manual delivery type always
// yields processing, whatever the product type; subscriptions are always
// processing because the invite is sent by a human.
func ResolveKind(pt model.ProductType, dt model.DeliveryType) model.OutcomeKind {
	if dt == model.DeliveryManual {
		return model.OutcomeProcessing
	}
	switch pt {
	case model.ProductTypeSubscription:
		return model.OutcomeProcessing
	case model.ProductTypeAccount:
		return model.OutcomeCredentials
	case model.ProductTypeLicenseKey:
		return model.OutcomeLicenseKey
	case model.ProductTypeDownload:
		return model.OutcomeDownloadLink
	}
	return model.OutcomeProcessing
}

// DeliveryPolicy holds the values a resolver needs to materialize outcomes.
type DeliveryPolicy struct {
	SLAMinutes       int
	InviteSLAMinutes int
	CredentialDomain string
	DownloadBaseURL  string
	Seed             []byte
}

// DeliveryResolver turns one purchased line into its delivery outcome.
// Generated identifiers are derived from (seed, kind, order id, product id), so
// resolving the same line twice returns the same secret.
type DeliveryResolver struct {
	policy DeliveryPolicy
}

func NewDeliveryResolver(policy DeliveryPolicy) *DeliveryResolver {
	if policy.SLAMinutes <= 0 {
		policy.SLAMinutes = 30
	}
	if policy.InviteSLAMinutes <= 0 {
		policy.InviteSLAMinutes = policy.SLAMinutes
	}
	if policy.CredentialDomain == "" {
		policy.CredentialDomain = "accounts.example.com"
	}
	policy.DownloadBaseURL = strings.TrimRight(policy.DownloadBaseURL, "/")
	return &DeliveryResolver{policy: policy}
}

func (r *DeliveryResolver) Resolve(orderID string, p model.Product) model.DeliveryOutcome {
	kind := ResolveKind(p.ProductType, p.DeliveryType)
	switch kind {
	case model.OutcomeCredentials:
		d := r.derive(kind, orderID, p.ID)
		email := fmt.Sprintf("%s-%s@%s", slug(p.ID), hex.EncodeToString(d[:4]), r.policy.CredentialDomain)
		return model.CredentialsOutcome(email, formatCode(d[4:20], 4))
	case model.OutcomeLicenseKey:
		d := r.derive(kind, orderID, p.ID)
		return model.LicenseKeyOutcome(formatCode(d[:16], 4))
	case model.OutcomeDownloadLink:
		d := r.derive(kind, orderID, p.ID)
		return model.DownloadLinkOutcome(fmt.Sprintf("%s/%s/%s", r.policy.DownloadBaseURL, slug(p.ID), hex.EncodeToString(d[:16])))
	}
	if p.ProductType == model.ProductTypeSubscription {
		return model.ProcessingOutcome(r.policy.InviteSLAMinutes,
			fmt.Sprintf("An invite will be sent to the recipient email within %d minutes.", r.policy.InviteSLAMinutes))
	}
	return model.ProcessingOutcome(r.policy.SLAMinutes,
		fmt.Sprintf("Your order will be delivered within %d minutes.", r.policy.SLAMinutes))
}

// ResolveAll resolves every line of a checkout, index-aligned with lines.
func (r *DeliveryResolver) ResolveAll(orderID string, lines []model.CartLine) []model.DeliveryOutcome {
	out := make([]model.DeliveryOutcome, len(lines))
	for i, l := range lines {
		out[i] = r.Resolve(orderID, l.Product)
	}
	return out
}

func (r *DeliveryResolver) derive(kind model.OutcomeKind, orderID, productID string) []byte {
	mac := hmac.New(sha256.New, r.policy.Seed)
	mac.Write([]byte(string(kind) + "|" + orderID + ":" + productID))
	return mac.Sum(nil)
}

// formatCode renders b with a charset that avoids ambiguous characters like O/0, I/1, l,
// grouped as XXXX-XXXX-....
func formatCode(b []byte, group int) string {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	var sb strings.Builder
	for i, c := range b {
		if i > 0 && i%group == 0 {
			sb.WriteByte('-')
		}
		sb.WriteByte(chars[int(c)%len(chars)])
	}
	return sb.String()
}

func slug(s string) string {
	s = strings.ToLower(s)
	var sb strings.Builder
	for _, c := range s {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			sb.WriteRune(c)
		}
	}
	if sb.Len() == 0 {
		return "item"
	}
	return sb.String()
}
