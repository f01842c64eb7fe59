package campaigns

import (
	"errors"
	"strconv"

	campaignsvc "vitkara-backend/internal/application/campaigns"
	"vitkara-backend/internal/domain"
	"vitkara-backend/internal/middleware"
	"vitkara-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *campaignsvc.Service
}

// List GET /investor/campaigns?status=&limit=&page=&includeAll=
func (h *Handlers) List(c *fiber.Ctx) error {
	q := campaignsvc.DirectoryQuery{
		Status:     c.Query("status"),
		Page:       queryInt(c, "page"),
		Limit:      queryInt(c, "limit"),
		IncludeAll: c.QueryBool("includeAll", false),
	}
	page, err := h.Service.Directory(c.UserContext(), q)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownCampaignStatus) {
			return response.BadRequest(c, err.Error(), nil)
		}
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("campaign directory failed")
		return response.Internal(c)
	}
	return response.Success(c, "Campaigns fetched", fiber.Map{
		"campaigns":  page.Campaigns,
		"pagination": page.Pagination,
		"success":    true,
	}, nil)
}

// queryInt returns 0 for a missing or non-numeric value so the service default applies.
func queryInt(c *fiber.Ctx, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
