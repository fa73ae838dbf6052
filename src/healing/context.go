package healing

// Context carries what the caller was doing when the failure happened. The
// corrector reads operands out of it; the mitigator keys retry counters on
// the endpoint.
type Context struct {
	Operation    string `json:"operation,omitempty"`
	Operand1     string `json:"operand1,omitempty"`
	Operand2     string `json:"operand2,omitempty"`
	CurrencyFrom string `json:"currency_from,omitempty"`
	CurrencyTo   string `json:"currency_to,omitempty"`
	Endpoint     string `json:"endpoint,omitempty"`
	Component    string `json:"component,omitempty"`
}

func (c Context) endpointKey() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return "unknown"
}
