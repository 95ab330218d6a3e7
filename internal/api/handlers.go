package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/mindspend/internal/calculator"
	"github.com/Veraticus/mindspend/internal/history"
	"github.com/Veraticus/mindspend/internal/insights"
	"github.com/Veraticus/mindspend/internal/model"
)

var errNoProfile = errors.New("profile is not set up")

// checkRequest is the body of a price check. UTCOffsetMinutes is the
// client's offset east of UTC; the hour of day is recorded in that zone.
type checkRequest struct {
	UTCOffsetMinutes *int    `json:"utcOffsetMinutes"`
	Label            string  `json:"label"`
	Category         string  `json:"category"`
	Price            float64 `json:"price"`
}

func (r checkRequest) toRecord(p model.Profile) (model.NewPurchaseRecord, error) {
	category, err := model.ParseCategory(r.Category)
	if err != nil {
		return model.NewPurchaseRecord{}, err
	}
	rec := model.NewPurchaseRecord{
		Price:        r.Price,
		Label:        r.Label,
		Category:     category,
		Profile:      p,
		Calculations: calculator.Compute(r.Price, p),
	}.Normalize()
	if r.UTCOffsetMinutes != nil {
		loc, err := model.OffsetZone(*r.UTCOffsetMinutes)
		if err != nil {
			return model.NewPurchaseRecord{}, err
		}
		rec.Location = loc
	}
	return rec, rec.Validate()
}

// incomeRequest is the setup form: one income figure plus optional overrides.
type incomeRequest struct {
	MonthlyExpenses    *float64         `json:"monthlyExpenses"`
	EmergencyFundGoal  *float64         `json:"emergencyFundGoal"`
	FreedomGoal        *float64         `json:"freedomGoal"`
	Kind               model.IncomeKind `json:"kind"`
	Amount             float64          `json:"amount"`
	WorkingDaysPerYear int              `json:"workingDaysPerYear"`
}

// profileRequest replaces the profile, either directly or from the setup form.
type profileRequest struct {
	Income *incomeRequest `json:"income,omitempty"`
	model.Profile
}

type decisionRequest struct {
	Regret   *bool  `json:"regret"`
	Decision string `json:"decision"`
}

func (s *Server) calculate(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, ok := s.loadProfile(c)
	if !ok {
		return
	}
	rec, err := req.toRecord(*profile)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, calculator.Present(rec.Price, rec.Label, rec.Category, *profile))
}

func (s *Server) getProfile(c *gin.Context) {
	profile, ok := s.loadProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) putProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := req.Profile
	if in := req.Income; in != nil {
		var err error
		profile, err = model.NewProfile(model.IncomeInput{
			Kind:               in.Kind,
			Amount:             in.Amount,
			WorkingDaysPerYear: in.WorkingDaysPerYear,
			MonthlyExpenses:    in.MonthlyExpenses,
			EmergencyFundGoal:  in.EmergencyFundGoal,
			FreedomGoal:        in.FreedomGoal,
		})
		if err != nil {
			s.respondError(c, err)
			return
		}
	}

	if err := s.profiles(c).Save(c.Request.Context(), profile); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) listHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	records, err := s.records(c).List(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if records == nil {
		records = []model.PurchaseRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) createHistory(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, ok := s.loadProfile(c)
	if !ok {
		return
	}
	rec, err := req.toRecord(*profile)
	if err != nil {
		s.respondError(c, err)
		return
	}

	id, err := s.records(c).Create(c.Request.Context(), rec)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "calculations": rec.Calculations})
}

func (s *Server) updateDecision(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decision, err := model.ParseDecision(req.Decision)
	if err != nil {
		s.respondError(c, err)
		return
	}

	if err := s.records(c).UpdateDecision(c.Request.Context(), c.Param("id"), decision, req.Regret); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Decision saved"})
}

func (s *Server) deleteHistory(c *gin.Context) {
	if err := s.records(c).Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Check deleted"})
}

func (s *Server) getInsights(c *gin.Context) {
	records, err := s.records(c).List(c.Request.Context(), 0)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, insights.Summarize(records, s.now()))
}

// loadProfile writes the error response itself when it returns false.
func (s *Server) loadProfile(c *gin.Context) (*model.Profile, bool) {
	profile, err := s.profiles(c).Load(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errNoProfile.Error()})
		return nil, false
	}
	return profile, true
}

// respondError maps validation failures to 400, unknown records to 404 and
// everything else to 500.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case isValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, history.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func isValidation(err error) bool {
	for _, target := range []error{
		model.ErrInvalidPrice,
		model.ErrInvalidCategory,
		model.ErrInvalidDecision,
		model.ErrInvalidUTCOffset,
		model.ErrInvalidWage,
		model.ErrInvalidWorkingDays,
		model.ErrNegativeExpenses,
		model.ErrInvalidGoal,
		model.ErrInvalidIncome,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
