package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/association-planning/internal/application"
	"github.com/example/association-planning/internal/recurrence"
	"github.com/example/association-planning/internal/roster"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// Repositories bundles the application-level stores a full service set needs.
type Repositories struct {
	Members   application.MemberRepository
	Absences  application.AbsenceRepository
	Recurring application.RecurringRepository
	Specific  application.SpecificRepository
}

// Services is a wired set of application services sharing one planning cache.
type Services struct {
	Members     *application.MemberService
	Absences    *application.AbsenceService
	Assignments *application.AssignmentService
	Planning    *application.PlanningService
}

// ServicesConfig tunes NewServices. Zero values select the service defaults.
type ServicesConfig struct {
	Engine       *recurrence.Engine
	Policy       *roster.StaffingPolicy
	MaxRangeDays int
	CacheTTL     time.Duration
	CacheSize    int
	Location     *time.Location
	Logger       *slog.Logger
}

// NewServices wires every application service over repos. The planning
// service receives the invalidation notices of the others. Identifiers are
// prefixed by kind ("member-1", "absence-2", ...).
func (f *ServiceFactory) NewServices(repos Repositories, cfg ServicesConfig) Services {
	now := f.Clock.NowFunc()

	planning := application.NewPlanningService(repos.Members, repos.Recurring, repos.Specific, repos.Absences, application.PlanningServiceConfig{
		MaxRangeDays: cfg.MaxRangeDays,
		CacheTTL:     cfg.CacheTTL,
		CacheSize:    cfg.CacheSize,
		Location:     cfg.Location,
		Now:          now,
		Logger:       cfg.Logger,
	})

	return Services{
		Members:  application.NewMemberServiceWithLogger(repos.Members, planning, f.IDGenerator.KindFunc("member"), now, cfg.Logger),
		Absences: application.NewAbsenceServiceWithLogger(repos.Absences, repos.Members, planning, f.IDGenerator.KindFunc("absence"), now, cfg.Logger),
		Assignments: application.NewAssignmentService(repos.Recurring, repos.Specific, repos.Members, application.AssignmentServiceConfig{
			Engine:      cfg.Engine,
			Policy:      cfg.Policy,
			Invalidator: planning,
			IDGenerator: f.IDGenerator.KindFunc("assignment"),
			Now:         now,
			Logger:      cfg.Logger,
		}),
		Planning: planning,
	}
}

// MemberServiceDeps captures dependencies for constructing a member service.
type MemberServiceDeps struct {
	Members     application.MemberRepository
	Invalidator application.ScheduleInvalidator
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewMemberService builds a member service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewMemberService(deps MemberServiceDeps) *application.MemberService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewMemberServiceWithLogger(deps.Members, deps.Invalidator, idGen, now, deps.Logger)
}

// AbsenceServiceDeps captures dependencies for constructing an absence service.
type AbsenceServiceDeps struct {
	Absences    application.AbsenceRepository
	Members     application.MemberLookup
	Invalidator application.ScheduleInvalidator
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewAbsenceService builds an absence service using the supplied dependencies.
func (f *ServiceFactory) NewAbsenceService(deps AbsenceServiceDeps) *application.AbsenceService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewAbsenceServiceWithLogger(deps.Absences, deps.Members, deps.Invalidator, idGen, now, deps.Logger)
}
