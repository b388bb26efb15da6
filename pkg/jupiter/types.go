package jupiter

// Wire types for the Jupiter v6 aggregator API. Field names follow the
// upstream JSON exactly; amounts are integer strings in base units.

// QuoteResponse is the aggregator's answer to a quote request.
type QuoteResponse struct {
	InputMint            string       `json:"inputMint"`
	InAmount             string       `json:"inAmount"`
	OutputMint           string       `json:"outputMint"`
	OutAmount            string       `json:"outAmount"`
	OtherAmountThreshold string       `json:"otherAmountThreshold"`
	SwapMode             string       `json:"swapMode"`
	SlippageBps          int          `json:"slippageBps"`
	PlatformFee          *PlatformFee `json:"platformFee,omitempty"`
	PriceImpactPct       string       `json:"priceImpactPct"`
	RoutePlan            []RoutePlan  `json:"routePlan"`
	ContextSlot          int64        `json:"contextSlot"`
	TimeTaken            float64      `json:"timeTaken"`
}

// PlatformFee describes the referral fee charged on the swap, if any.
type PlatformFee struct {
	Amount string `json:"amount"`
	FeeBps int    `json:"feeBps"`
}

// RoutePlan is one hop of the computed route.
type RoutePlan struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  int      `json:"percent"`
}

// SwapInfo describes the venue and per-hop amounts of a route hop.
type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
	FeeAmount  string `json:"feeAmount"`
	FeeMint    string `json:"feeMint"`
}

// SwapRequest is the POST body of the transaction-build endpoint.
type SwapRequest struct {
	QuoteResponse             *QuoteResponse `json:"quoteResponse"`
	UserPublicKey             string         `json:"userPublicKey"`
	WrapAndUnwrapSol          bool           `json:"wrapAndUnwrapSol"`
	UseSharedAccounts         bool           `json:"useSharedAccounts,omitempty"`
	FeeAccount                string         `json:"feeAccount,omitempty"`
	DynamicComputeUnitLimit   bool           `json:"dynamicComputeUnitLimit,omitempty"`
	PrioritizationFeeLamports uint64         `json:"prioritizationFeeLamports,omitempty"`
}

// SwapResponse carries the unsigned, serialized swap transaction.
type SwapResponse struct {
	SwapTransaction           string `json:"swapTransaction"`
	LastValidBlockHeight      uint64 `json:"lastValidBlockHeight"`
	PrioritizationFeeLamports uint64 `json:"prioritizationFeeLamports"`
}

// errorBody is the shape upstream uses for structured error responses.
type errorBody struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
	Details   string `json:"details"`
}
