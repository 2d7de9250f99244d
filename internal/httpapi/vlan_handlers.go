package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dellswitch/switchctl/internal/apperr"
	"github.com/dellswitch/switchctl/internal/audit"
	appmiddleware "github.com/dellswitch/switchctl/internal/middleware"
	"github.com/dellswitch/switchctl/internal/vlanchange"
)

type vlanConfigFlags struct {
	IncludeVlanName          bool `json:"include_vlan_name"`
	OverrideUplinkProtection bool `json:"override_uplink_protection"`
	SkipNonAccessPorts       bool `json:"skip_non_access_ports"`
}

type vlanConfigRequest struct {
	Action   string          `json:"action"`
	SwitchID string          `json:"switch_id"`
	PortSpec string          `json:"port_spec"`
	VlanID   int             `json:"vlan_id"`
	Flags    vlanConfigFlags `json:"flags"`
	PlanHash string          `json:"plan_hash"`
}

func (req vlanConfigRequest) toEngineRequest() vlanchange.Request {
	return vlanchange.Request{
		SwitchID: req.SwitchID,
		PortSpec: req.PortSpec,
		VLAN:     req.VlanID,
		Flags: vlanchange.Flags{
			IncludeVlanName:          req.Flags.IncludeVlanName,
			OverrideUplinkProtection: req.Flags.OverrideUplinkProtection,
			SkipNonAccessPorts:       req.Flags.SkipNonAccessPorts,
		},
	}
}

// handleVlanConfig dispatches to Preview or Execute per §4.5's two-phase
// state machine based on the action field. A privileged execute whose
// switch write succeeds but whose audit write fails is reported as a
// failure per §4.9 — the operator must not believe an unaudited write
// happened cleanly.
func (rt *Router) handleVlanConfig(c echo.Context) error {
	var req vlanConfigRequest
	if err := c.Bind(&req); err != nil {
		return writeErr(c, apperr.New(apperr.ParseFailure, "malformed vlan_config body"))
	}

	user := appmiddleware.UserFromContext(c.Request().Context())
	if user == nil {
		return writeErr(c, apperr.New(apperr.Unauthenticated, "no authenticated principal"))
	}

	switch req.Action {
	case "preview":
		plan, err := rt.cfg.VlanChange.Preview(c.Request().Context(), req.toEngineRequest())
		if err != nil {
			return writeErr(c, err)
		}
		return c.JSON(http.StatusOK, plan)

	case "execute":
		start := time.Now()
		receipt, err := rt.cfg.VlanChange.Execute(c.Request().Context(), user.Role, req.toEngineRequest(), req.PlanHash)
		if err != nil {
			rt.writeAudit(c, "vlan_config.execute", user, req, audit.OutcomeFailure, err.Error(), time.Since(start))
			return writeErr(c, err)
		}

		auditErr := rt.writeAudit(c, "vlan_config.execute", user, req, audit.OutcomeSuccess, "", time.Since(start))
		if auditErr != nil {
			return writeErr(c, apperr.Wrap(apperr.Internal, "switch write succeeded but audit write failed; treating as failure", auditErr))
		}
		return c.JSON(http.StatusOK, receipt)

	default:
		return writeErr(c, apperr.New(apperr.ParseFailure, "action must be \"preview\" or \"execute\""))
	}
}

// writeAudit appends a Record for a privileged vlan_config call. It never
// swallows a write failure — the caller decides what that means for the
// HTTP response.
func (rt *Router) writeAudit(c echo.Context, op string, user *appmiddleware.AuthUser, req vlanConfigRequest, outcome audit.Outcome, reason string, dur time.Duration) error {
	inputs := audit.Redact(map[string]any{
		"switch_id": req.SwitchID,
		"port_spec": req.PortSpec,
		"vlan_id":   req.VlanID,
		"action":    req.Action,
	})
	rec := audit.Record{
		At:        time.Now(),
		Principal: user.Username,
		Role:      string(user.Role),
		Operation: op,
		Inputs:    inputs,
		Outcome:   outcome,
		Reason:    reason,
		Duration:  dur,
		SourceIP:  c.RealIP(),
	}
	return rt.cfg.Audit.Write(c.Request().Context(), rec)
}

type vlanCheckRequest struct {
	SwitchID string `json:"switch_id"`
	VlanID   int    `json:"vlan_id"`
}

type vlanCheckResponse struct {
	Exists bool   `json:"exists"`
	Status string `json:"status"`
}

func (rt *Router) handleVlanCheck(c echo.Context) error {
	var req vlanCheckRequest
	if err := c.Bind(&req); err != nil {
		return writeErr(c, apperr.New(apperr.ParseFailure, "malformed vlan/check body"))
	}

	exists, err := rt.cfg.VlanChange.CheckVLAN(c.Request().Context(), req.SwitchID, req.VlanID)
	if err != nil {
		return writeErr(c, err)
	}
	status := "absent"
	if exists {
		status = "present"
	}
	return c.JSON(http.StatusOK, vlanCheckResponse{Exists: exists, Status: status})
}

type portStatusRequest struct {
	SwitchID string `json:"switch_id"`
	Ports    string `json:"ports"`
}

func (rt *Router) handlePortStatus(c echo.Context) error {
	var req portStatusRequest
	if err := c.Bind(&req); err != nil {
		return writeErr(c, apperr.New(apperr.ParseFailure, "malformed port/status body"))
	}

	facts, err := rt.cfg.VlanChange.DescribePorts(c.Request().Context(), req.SwitchID, req.Ports)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, facts)
}
