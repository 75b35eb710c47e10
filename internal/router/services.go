package router

import (
	"database/sql"

	"petport/internal/adapters/email/logsink"
	"petport/internal/adapters/payments/stripe"
	mem "petport/internal/adapters/storage/memory"
	pg "petport/internal/adapters/storage/postgres"
	"petport/internal/config"
	"petport/internal/domain/care"
	"petport/internal/domain/contacts"
	"petport/internal/domain/gifts"
	"petport/internal/domain/medical"
	"petport/internal/domain/pets"
	"petport/internal/domain/photos"
	"petport/internal/domain/referrals"
	"petport/internal/domain/reviews"
	"petport/internal/domain/share"
	"petport/internal/domain/subscribers"
	"petport/internal/jobs"
	"petport/internal/platform/joblock"
	"petport/internal/platform/logger"
	"petport/internal/ports/auth"
	"petport/internal/ports/email"
	"petport/internal/ports/media"
	"petport/internal/ports/payments"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Config *config.Config

	// Adapters opcionales. nil => processor sin configurar (503), emails al log, sin fotos.
	Payments payments.Processor
	Email    email.Sender
	Media    media.Store

	// Lock de jobs. nil => lock local.
	Locker joblock.Locker
	Log    logger.Logger

	// Done detiene las goroutines de mantenimiento (cleanup del rate limiter).
	Done <-chan struct{}
}

// Services es el grafo de servicios; lo comparten la API y el worker.
type Services struct {
	Pets        *pets.Service
	Contacts    *contacts.Service
	Medical     *medical.Service
	Care        *care.Service
	Photos      *photos.Service
	Subscribers *subscribers.Service
	Referrals   *referrals.Service
	Gifts       *gifts.Service
	Reviews     *reviews.Service
	Share       *share.Handler
	Jobs        *jobs.Runner
}

type repos struct {
	pets        pets.Repository
	contacts    contacts.Repository
	medical     medical.Repository
	care        care.Repository
	photos      photos.Repository
	subscribers subscribers.Repository
	referrals   referrals.Repository
	gifts       gifts.Repository
	reviews     reviews.Repository
}

func newRepos(db *sql.DB) repos {
	if db != nil {
		return repos{
			pets:        pg.NewPetsRepo(db),
			contacts:    pg.NewContactsRepo(db),
			medical:     pg.NewMedicalRepo(db),
			care:        pg.NewCareRepo(db),
			photos:      pg.NewPhotosRepo(db),
			subscribers: pg.NewSubscribersRepo(db),
			referrals:   pg.NewReferralsRepo(db),
			gifts:       pg.NewGiftsRepo(db),
			reviews:     pg.NewReviewsRepo(db),
		}
	}
	return repos{
		pets:        mem.NewPetRepo(),
		contacts:    mem.NewContactRepo(),
		medical:     mem.NewMedicalRepo(),
		care:        mem.NewCareRepo(),
		photos:      mem.NewPhotoRepo(),
		subscribers: mem.NewSubscriberRepo(),
		referrals:   mem.NewReferralRepo(),
		gifts:       mem.NewGiftRepo(),
		reviews:     mem.NewReviewRepo(),
	}
}

// NewServices arma repos y servicios por módulo y cablea las dependencias cruzadas.
func NewServices(opts Options) (*Services, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}

	proc := opts.Payments
	if proc == nil {
		c, err := stripe.NewClient(stripe.Config{})
		if err != nil {
			return nil, err
		}
		proc = c
	}
	sender := opts.Email
	if sender == nil {
		sender = logsink.New(log.With(map[string]any{"component": "email"}))
	}

	rp := newRepos(opts.DB)
	admins := cfg.AdminEmailList()

	subsSvc := subscribers.NewService(rp.subscribers, proc, sender, subscribers.Config{
		AppURL:        cfg.AppURL,
		PriceMonthly:  cfg.StripePriceMonthly,
		PriceYearly:   cfg.StripePriceYearly,
		PriceExtraPet: cfg.StripePriceExtra,
		TrialDays:     cfg.TrialDays,
		FreePetLimit:  cfg.FreePetLimit,
		GracePeriod:   cfg.GracePeriod,
	}, log.With(map[string]any{"module": "subscribers"}))

	refSvc := referrals.NewService(rp.referrals, subsSvc, proc, referrals.Config{
		AppURL:          cfg.AppURL,
		CommissionCents: cfg.ReferralCommissionCents,
		TrialDays:       cfg.TrialDays,
	}, log.With(map[string]any{"module": "referrals"}))
	subsSvc.SetReferralLinker(refSvc)

	giftSvc := gifts.NewService(rp.gifts, proc, sender, subsSvc, gifts.Config{
		AppURL:        cfg.AppURL,
		PriceGift:     cfg.StripePriceGift,
		PriceExtraPet: cfg.StripePriceExtra,
	}, log.With(map[string]any{"module": "gifts"}))

	petsSvc := pets.NewService(rp.pets, subsSvc, log.With(map[string]any{"module": "pets"}))
	contactsSvc := contacts.NewService(rp.contacts, petsSvc)
	medicalSvc := medical.NewService(rp.medical, petsSvc)
	careSvc := care.NewService(rp.care, petsSvc, contactsSvc, sender, cfg.AppURL, log.With(map[string]any{"module": "care"}))
	photosSvc := photos.NewService(rp.photos, petsSvc, opts.Media, photos.Config{
		MaxPerPet: cfg.MaxPhotosPerPet,
		Folder:    cfg.CloudinaryFolder,
	}, log.With(map[string]any{"module": "photos"}))

	petsSvc.SetContactLister(contactsSvc)
	// Orden de borrado: primero los hijos, la mascota al final (lo hace pets.Delete).
	petsSvc.AddDeleteHook(contactsSvc.DeleteByPet)
	petsSvc.AddDeleteHook(medicalSvc.DeleteByPet)
	petsSvc.AddDeleteHook(careSvc.DeleteByPet)
	petsSvc.AddDeleteHook(photosSvc.DeleteByPet)

	reviewsSvc := reviews.NewService(rp.reviews, sender, admins, log.With(map[string]any{"module": "reviews"}))

	runner := jobs.NewRunner(opts.Locker, log)
	jobs.RegisterStandard(runner, jobs.Deps{
		Referrals: refSvc,
		Gifts:     giftSvc,
		Email:     sender,
		Admins:    admins,
		Log:       log,
	})

	return &Services{
		Pets:        petsSvc,
		Contacts:    contactsSvc,
		Medical:     medicalSvc,
		Care:        careSvc,
		Photos:      photosSvc,
		Subscribers: subsSvc,
		Referrals:   refSvc,
		Gifts:       giftSvc,
		Reviews:     reviewsSvc,
		Share: share.NewHandler(share.Config{
			AppURL:       cfg.AppURL,
			ImageBaseURL: cfg.ShareImageBaseURL,
		}, log.With(map[string]any{"module": "share"})),
		Jobs: runner,
	}, nil
}
