package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sol-swap/pkg/jupiter"
)

func (s *Server) handleQuote(c *gin.Context) {
	inputMint := c.Query("inputMint")
	outputMint := c.Query("outputMint")
	amount := c.Query("amount")
	if inputMint == "" || outputMint == "" || amount == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}

	slippageBps := 0
	if raw := c.Query("slippageBps"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "slippageBps must be an integer"})
			return
		}
		slippageBps = v
	}

	quote, err := s.aggregator.GetQuote(c.Request.Context(), jupiter.GetQuoteParams{
		InputMint:   inputMint,
		OutputMint:  outputMint,
		Amount:      amount,
		SlippageBps: slippageBps,
		Taker:       c.Query("taker"),
	})
	if err != nil {
		s.writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

type proxySwapRequest struct {
	QuoteResponse             *jupiter.QuoteResponse `json:"quoteResponse"`
	UserPublicKey             string                 `json:"userPublicKey"`
	WrapAndUnwrapSol          *bool                  `json:"wrapAndUnwrapSol"`
	PrioritizationFeeLamports uint64                 `json:"prioritizationFeeLamports"`
}

func (s *Server) handleSwap(c *gin.Context) {
	var req proxySwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if req.QuoteResponse == nil || req.UserPublicKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters: quoteResponse and userPublicKey"})
		return
	}

	resp, err := s.aggregator.BuildSwap(c.Request.Context(), jupiter.BuildSwapParams{
		Quote:                     req.QuoteResponse,
		UserPublicKey:             req.UserPublicKey,
		WrapAndUnwrapSol:          req.WrapAndUnwrapSol,
		PrioritizationFeeLamports: req.PrioritizationFeeLamports,
	})
	if err != nil {
		s.writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleTokens(c *gin.Context) {
	reg := s.loader.Load(c.Request.Context())
	c.JSON(http.StatusOK, reg.All())
}

// writeFailure maps the typed error taxonomy onto the proxy's error
// shape: {error, details?} with a status reflecting the failure class.
func (s *Server) writeFailure(c *gin.Context, err error) {
	var pe *jupiter.ParamError
	var ue *jupiter.UpstreamError

	switch {
	case errors.Is(err, jupiter.ErrNoRoute):
		// A normal business outcome for illiquid pairs.
		c.JSON(http.StatusNotFound, gin.H{"error": "no viable route for pair"})
	case errors.As(err, &pe):
		c.JSON(http.StatusBadRequest, gin.H{"error": pe.Error()})
	case errors.As(err, &ue):
		status := ue.Status // aggregator status passes through
		if status == 0 {
			status = http.StatusServiceUnavailable
		}
		body := gin.H{"error": ue.Message}
		if ue.Details != "" {
			body["details"] = ue.Details
		}
		c.JSON(status, body)
	default:
		s.log.Error("unexpected failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
