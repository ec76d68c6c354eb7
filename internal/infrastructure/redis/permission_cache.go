package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/iptegra/nexus-api/internal/application/ports"
	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/permission"
	"github.com/iptegra/nexus-api/pkg/config"
)

var _ ports.PermissionCache = (*PermissionCache)(nil)

// PermissionCache guarda el set de permisos por (company, rol) con TTL.
type PermissionCache struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewClient abre el cliente Redis con la configuración de la aplicación.
func NewClient(cfg config.RedisConfig) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewPermissionCache construye la caché. ttl <= 0 usa 5 minutos.
func NewPermissionCache(client *goredis.Client, ttl time.Duration) *PermissionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PermissionCache{client: client, ttl: ttl}
}

// Key clave Redis del set de un rol.
func Key(companyID, role string) string {
	return fmt.Sprintf("nexus:perms:%s:%s", companyID, role)
}

// Get devuelve ok=false si la clave no existe o expiró.
func (c *PermissionCache) Get(ctx context.Context, companyID, role string) (permission.Set, bool, error) {
	raw, err := c.client.Get(ctx, Key(companyID, role)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: redis get: %v", domain.ErrTransientIO, err)
	}
	set := permission.Set{}
	if err := json.Unmarshal(raw, &set); err != nil {
		// entrada corrupta: se trata como ausente y se sobrescribe en la siguiente carga
		return nil, false, nil
	}
	return set, true, nil
}

// Set guarda el set completo (concedidos y denegados).
func (c *PermissionCache) Set(ctx context.Context, companyID, role string, set permission.Set) error {
	raw, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("serializar permisos: %w", err)
	}
	if err := c.client.Set(ctx, Key(companyID, role), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", domain.ErrTransientIO, err)
	}
	return nil
}

// Invalidate borra la entrada para que la siguiente sesión recargue desde la base de datos.
func (c *PermissionCache) Invalidate(ctx context.Context, companyID, role string) error {
	if err := c.client.Del(ctx, Key(companyID, role)).Err(); err != nil {
		return fmt.Errorf("%w: redis del: %v", domain.ErrTransientIO, err)
	}
	return nil
}
