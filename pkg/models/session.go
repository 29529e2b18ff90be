package models

// Cookie is the persisted browser-session unit. The JSON shape matches the
// cookie dumps older deployments wrote, so existing session files keep
// loading. SameSite has no field and is dropped on load; drivers reject
// spellings they don't know.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expiry   float64 `json:"expiry,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
}
