package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/domain/permission"
)

// actorResolver carga el set de permisos del rol del token. Lo implementa *session.SessionUseCase;
// el uso de interfaz permite probar los middlewares sin base de datos.
type actorResolver interface {
	ResolveActor(ctx context.Context, userID, companyID, role string) (permission.Actor, error)
}

// LoadActor resuelve el Actor (usuario, company, rol y permisos) una vez por petición.
// Debe usarse DESPUÉS de AuthMiddleware. Si la carga falla responde según el tipo de error
// (503 reintentable si es temporal): nunca se continúa con un set vacío inventado.
func LoadActor(resolver actorResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, companyID, role := GetUserID(c), GetCompanyID(c), GetRole(c)
		if userID == "" || companyID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code: "UNAUTHORIZED", Message: "identidad no encontrada en el token", Kind: "unauthenticated",
			})
		}
		actor, err := resolver.ResolveActor(c.Context(), userID, companyID, role)
		if err != nil {
			return writeError(c, err)
		}
		c.Locals(LocalActor, actor)
		return c.Next()
	}
}

// GetActor devuelve el Actor cargado por LoadActor. Sin LoadActor devuelve un Actor
// sin permisos, que cualquier comprobación deniega.
func GetActor(c *fiber.Ctx) permission.Actor {
	a, _ := c.Locals(LocalActor).(permission.Actor)
	return a
}

// RequirePermission corta con 403 si el actor no tiene la clave.
// Los casos de uso vuelven a comprobarlo; este gate evita trabajo inútil y documenta la ruta.
func RequirePermission(key permission.Key) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetActor(c).Can(key) {
			return c.Next()
		}
		return forbidden(c, string(key))
	}
}

// RequireAnyPermission corta con 403 si el actor no tiene ninguna de las claves.
func RequireAnyPermission(keys ...permission.Key) fiber.Handler {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	return func(c *fiber.Ctx) error {
		if GetActor(c).CanAny(keys...) {
			return c.Next()
		}
		return forbidden(c, strings.Join(names, " o "))
	}
}

func forbidden(c *fiber.Ctx, need string) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
		Code:    "FORBIDDEN",
		Message: "no tienes permiso para realizar esta acción (requiere " + need + ")",
		Kind:    "unauthorized",
	})
}
