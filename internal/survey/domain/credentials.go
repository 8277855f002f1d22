package domain

import "fmt"

const (
	DefaultWorksheetName = "Sheet2"
	DefaultDataCenter    = "in"
)

// ProviderCredentials identify the Zoho client and the target workbook.
// The required tags are checked per request, not at startup.
type ProviderCredentials struct {
	ClientID      string `validate:"required"`
	ClientSecret  string `validate:"required"`
	RefreshToken  string `validate:"required"`
	WorkbookID    string `validate:"required"`
	WorksheetName string
	DataCenter    string
}

// Worksheet returns the configured worksheet or the default one.
func (c ProviderCredentials) Worksheet() string {
	if c.WorksheetName == "" {
		return DefaultWorksheetName
	}
	return c.WorksheetName
}

// DC returns the configured data center code or the default one.
func (c ProviderCredentials) DC() string {
	if c.DataCenter == "" {
		return DefaultDataCenter
	}
	return c.DataCenter
}

// String never prints secret values.
func (c ProviderCredentials) String() string {
	return fmt.Sprintf(
		"ProviderCredentials{clientID:%s clientSecret:%s refreshToken:%s workbookID:%q worksheet:%q dc:%q}",
		presence(c.ClientID), presence(c.ClientSecret), presence(c.RefreshToken),
		c.WorkbookID, c.Worksheet(), c.DC(),
	)
}

// GoString keeps %#v from leaking secrets as well.
func (c ProviderCredentials) GoString() string {
	return c.String()
}

func presence(v string) string {
	if v == "" {
		return "<missing>"
	}
	return "<set>"
}
