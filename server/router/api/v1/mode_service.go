package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/chatrelay/relay"
)

// ModeService exposes the operating mode over REST.
type ModeService struct {
	Modes *relay.ModeController
}

// ModeResponse carries the active mode's wire name.
type ModeResponse struct {
	Mode string `json:"mode"`
}

// PutModeRequest is the body of PUT /api/v1/mode.
type PutModeRequest struct {
	Mode string `json:"mode"`
}

// GetMode returns the mode currently in effect.
func (s *ModeService) GetMode(c echo.Context) error {
	return c.JSON(http.StatusOK, &ModeResponse{Mode: s.Modes.Current().String()})
}

// PutMode switches the active mode. Setting "reevaluate" arms the pulse: the
// next handled message reverts the system to autonomous operation.
func (s *ModeService) PutMode(c echo.Context) error {
	request := &PutModeRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	mode, err := relay.ParseMode(request.Mode)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.Modes.Transition(mode)
	return c.JSON(http.StatusOK, &ModeResponse{Mode: mode.String()})
}
