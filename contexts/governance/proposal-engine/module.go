package proposalengine

import (
	"log/slog"

	httpadapter "arcane/contexts/governance/proposal-engine/adapters/http"
	"arcane/contexts/governance/proposal-engine/adapters/memory"
	"arcane/contexts/governance/proposal-engine/application/commands"
	"arcane/contexts/governance/proposal-engine/application/queries"
	"arcane/contexts/governance/proposal-engine/application/workers"
	"arcane/contexts/governance/proposal-engine/domain/entities"
	"arcane/contexts/governance/proposal-engine/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	EpochCloser workers.EpochCloser
	OutboxRelay workers.OutboxRelay
	Store       *memory.Store
}

type Dependencies struct {
	UnitOfWork ports.UnitOfWork
	Proposals  ports.ProposalReader
	Addresses  ports.AddressReader
	Metadata   ports.MetadataResolver
	Epochs     ports.EpochSource
	Outbox     ports.OutboxRepository
	Publisher  ports.EventPublisher
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	CloseBatch int
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	lifecycle := commands.LifecycleUseCase{
		UnitOfWork: deps.UnitOfWork,
		Addresses:  deps.Addresses,
		Metadata:   deps.Metadata,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Lifecycle: lifecycle,
			Proposals: queries.ProposalQueryUseCase{
				Proposals: deps.Proposals,
				Addresses: deps.Addresses,
			},
			Addresses: queries.AddressQueryUseCase{
				Addresses: deps.Addresses,
			},
			Epochs: deps.Epochs,
			Logger: deps.Logger,
		},
		EpochCloser: workers.EpochCloser{
			Epochs:    deps.Epochs,
			Closer:    lifecycle,
			BatchSize: deps.CloseBatch,
			Logger:    deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule backs every port with one memory store. The store also
// serves as the epoch source; tests move it with Store.SetEpoch.
func NewInMemoryModule(
	seed []entities.Address,
	metadata ports.MetadataResolver,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	for _, address := range seed {
		store.SeedAddress(address)
	}
	module := NewModule(Dependencies{
		UnitOfWork: store,
		Proposals:  store,
		Addresses:  store,
		Metadata:   metadata,
		Epochs:     store,
		Outbox:     store,
		Publisher:  publisher,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
