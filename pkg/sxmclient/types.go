package sxmclient

// tokenProbe extracts a refreshed bearer token from any backend response.
type tokenProbe struct {
	Grant       string `json:"grant"`
	AccessToken string `json:"accessToken"`
}

type browserAttributes struct {
	BrowserVersion string `json:"browserVersion"`
	UserAgent      string `json:"userAgent"`
	SDK            string `json:"sdk"`
	App            string `json:"app"`
	SDKVersion     string `json:"sdkVersion"`
	AppVersion     string `json:"appVersion"`
}

type deviceRegistration struct {
	DevicePlatform   string `json:"devicePlatform"`
	DeviceAttributes struct {
		Browser browserAttributes `json:"browser"`
	} `json:"deviceAttributes"`
	GrantVersion string `json:"grantVersion"`
}

type passwordGrant struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

type sessionResponse struct {
	SessionType string `json:"sessionType"`
	AccessToken string `json:"accessToken"`
}

type keyResponse struct {
	Key string `json:"key"`
}
