package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/application/session"
	"github.com/iptegra/nexus-api/internal/domain/permission"
)

// SessionHandler expone la sesión resuelta: permisos, navegación y decisiones del guard.
type SessionHandler struct {
	uc *session.SessionUseCase
	v  *Validator
}

// NewSessionHandler construye el handler.
func NewSessionHandler(uc *session.SessionUseCase, v *Validator) *SessionHandler {
	return &SessionHandler{uc: uc, v: v}
}

// Me godoc
// @Summary      Sesión actual
// @Description  Rol, permisos concedidos y menú podado para el usuario del token.
// @Tags         session
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.MeResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/session/me [get]
func (h *SessionHandler) Me(c *fiber.Ctx) error {
	return c.JSON(h.uc.Me(GetActor(c)))
}

// Navigation godoc
// @Summary      Menú de navegación
// @Tags         session
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  access.MenuSection
// @Router       /api/session/navigation [get]
func (h *SessionHandler) Navigation(c *fiber.Ctx) error {
	return c.JSON(h.uc.Navigation(GetActor(c)))
}

// RouteCheck godoc
// @Summary      Decisión del guard para una ruta de la UI
// @Description  Sin token válido responde redirect a sign-in. Si los permisos no se pudieron cargar responde loading.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RouteCheckRequest  true  "ruta"
// @Success      200   {object}  access.Decision
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/session/route-check [post]
func (h *SessionHandler) RouteCheck(c *fiber.Ctx) error {
	var in dto.RouteCheckRequest
	if err := h.v.bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	companyID := GetCompanyID(c)
	authenticated := GetUserID(c) != "" && companyID != ""
	return c.JSON(h.uc.CheckRoute(c.Context(), authenticated, companyID, permission.Role(GetRole(c)), in.Path))
}

// UpdateRolePermissions godoc
// @Summary      Reemplazar permisos de un rol
// @Description  Requiere manage_roles. Las claves desconocidas se guardan y se informan en unknown_keys.
// @Tags         roles
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del rol"
// @Param        body  body  dto.RolePermissionsRequest  true  "clave → concedido"
// @Success      200   {object}  dto.RolePermissionsResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/roles/{id}/permissions [put]
func (h *SessionHandler) UpdateRolePermissions(c *fiber.Ctx) error {
	var in dto.RolePermissionsRequest
	if err := h.v.bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateRolePermissions(c.Context(), GetActor(c), c.Params("id"), in.Permissions)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
