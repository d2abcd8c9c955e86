package model

// OutcomeKind tags which DeliveryOutcome variant is populated.
type OutcomeKind string

const (
	OutcomeCredentials  OutcomeKind = "credentials"
	OutcomeLicenseKey   OutcomeKind = "license_key"
	OutcomeDownloadLink OutcomeKind = "download_link"
	OutcomeProcessing   OutcomeKind = "processing"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LicenseKey struct {
	Key string `json:"key"`
}

type DownloadLink struct {
	URL string `json:"url"`
}

type Processing struct {
	ETAMinutes int    `json:"eta_minutes"`
	Message    string `json:"message"`
}

// DeliveryOutcome is a tagged variant: exactly one payload matching Kind is set.
type DeliveryOutcome struct {
	Kind         OutcomeKind   `json:"kind"`
	Credentials  *Credentials  `json:"credentials,omitempty"`
	LicenseKey   *LicenseKey   `json:"license_key,omitempty"`
	DownloadLink *DownloadLink `json:"download_link,omitempty"`
	Processing   *Processing   `json:"processing,omitempty"`
}

func CredentialsOutcome(email, password string) DeliveryOutcome {
	return DeliveryOutcome{Kind: OutcomeCredentials, Credentials: &Credentials{Email: email, Password: password}}
}

func LicenseKeyOutcome(key string) DeliveryOutcome {
	return DeliveryOutcome{Kind: OutcomeLicenseKey, LicenseKey: &LicenseKey{Key: key}}
}

func DownloadLinkOutcome(url string) DeliveryOutcome {
	return DeliveryOutcome{Kind: OutcomeDownloadLink, DownloadLink: &DownloadLink{URL: url}}
}

func ProcessingOutcome(etaMinutes int, message string) DeliveryOutcome {
	return DeliveryOutcome{Kind: OutcomeProcessing, Processing: &Processing{ETAMinutes: etaMinutes, Message: message}}
}

func (o DeliveryOutcome) IsProcessing() bool { return o.Kind == OutcomeProcessing }

// Valid reports whether the payload matches the tag and carries a non-empty secret.
func (o DeliveryOutcome) Valid() bool {
	switch o.Kind {
	case OutcomeCredentials:
		return o.Credentials != nil && o.Credentials.Email != "" && o.Credentials.Password != ""
	case OutcomeLicenseKey:
		return o.LicenseKey != nil && o.LicenseKey.Key != ""
	case OutcomeDownloadLink:
		return o.DownloadLink != nil && o.DownloadLink.URL != ""
	case OutcomeProcessing:
		return o.Processing != nil
	}
	return false
}
