package domain

// Payment method types. Anything other than MethodTypeCOD goes through an
// online gateway.
const (
	MethodTypeCOD      = "cod"
	MethodTypeRazorpay = "razorpay"
	MethodTypePayPal   = "paypal"
	MethodTypeStripe   = "stripe"
)

// PaymentMethod is the per-website checkout option configuration.
type PaymentMethod struct {
	ID           string                 `json:"id"`
	WebsiteID    string                 `json:"-"`
	Name         string                 `json:"methodName"`
	Type         string                 `json:"methodType"`
	Enabled      bool                   `json:"isEnabled"`
	DisplayOrder int                    `json:"displayOrder"`
	Config       map[string]interface{} `json:"-"`
}

// IsCOD reports whether the method settles offline.
func (m PaymentMethod) IsCOD() bool {
	return m.Type == MethodTypeCOD
}

// ConfigString returns a string value from the method configuration.
func (m PaymentMethod) ConfigString(key string) string {
	if m.Config == nil {
		return ""
	}
	v, _ := m.Config[key].(string)
	return v
}
