package ports

import (
	"context"

	"github.com/iptegra/nexus-api/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Requests    repository.RequestRepository
	Activities  repository.ActivityRepository
	TimeEntries repository.TimeEntryRepository
	Clients     repository.ClientRepository
}

// TxRunner ejecuta fn dentro de una transacción: commit si fn devuelve nil, rollback si no.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}
