package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/amora-app/amora-server/api"
	"github.com/amora-app/amora-server/changefeed"
	"github.com/amora-app/amora-server/database"
	"github.com/amora-app/amora-server/database/model"
	"github.com/amora-app/amora-server/imageresize"
	"github.com/amora-app/amora-server/notify"
	"github.com/amora-app/amora-server/player"
	"github.com/amora-app/amora-server/search"
)

func main() {
	config, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %s", err)
	}

	switch config.Logfile {
	case "none":
		log.SetOutput(io.Discard)
	case "", "stdout":
	default:
		f, err := os.OpenFile(config.Logfile,
			os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("error opening logfile: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	feed := changefeed.New()

	repo, err := database.New(&database.Options{
		Filename: config.Dbfile,
		Feed:     feed,
	})
	if err != nil {
		log.Fatalf("database.New: %s", err)
	}
	repo.StartBackgroundJobs(ctx)

	transport := player.NewBroadcastTransport()
	session := player.New(&player.Options{
		Transport:   transport,
		PlayCounter: repo.Tracks,
	})
	if err := loadPlaylist(ctx, repo, session); err != nil {
		log.Fatalf("loading playlist: %s", err)
	}
	restorePlayerState(ctx, repo, session)
	session.Subscribe(func(snap player.Snapshot) {
		state := model.PlayerState{
			Position:  snap.Position,
			Volume:    snap.Volume,
			Shuffle:   snap.Shuffle,
			Repeat:    snap.Repeat,
			Timestamp: time.Now().UTC(),
		}
		if snap.CurrentTrack != nil {
			state.TrackID = snap.CurrentTrack.ID
		}
		repo.PlayerState.UpdatePlayerState(state)
	})

	var pusher notify.Pusher = notify.NopPusher{}
	if config.Notify.PushWebhook != "" {
		pusher = notify.NewWebhookPusher(config.Notify.PushWebhook)
	}
	notifier := notify.New(&notify.Options{
		Dismissals:      notify.NewDismissalStore(ctx, repo.Dismissals),
		Pusher:          pusher,
		Feed:            feed,
		RefreshInterval: time.Duration(config.Notify.RefreshIntervalSec) * time.Second,
	})
	notifier.Register(notify.NewPetTaskSource(repo.PetTasks))
	notifier.Register(notify.NewHealthSource(repo.HealthRecords))
	notifier.Register(notify.NewPlanSource(repo.Plans))
	notifier.Register(notify.NewPlaceSource(repo.Places))
	notifier.Register(notify.NewSurpriseSource(repo.Surprises))
	notifier.Register(notify.NewMessageSource(repo.Messages))
	notifier.Register(notify.NewGoalSource(repo.Goals, nil))
	notifier.Register(notify.NewDreamSource(repo.Dreams, nil))
	notifier.Register(notify.NewRecipeSource(repo.Recipes, nil))
	notifier.Register(notify.NewMovieSource(repo.Movies, nil))
	notifier.Start(ctx)

	searcher, err := search.New(&search.Options{
		Repo: repo,
		Feed: feed,
	})
	if err != nil {
		log.Fatalf("search.New: %s", err)
	}
	searcher.Start(ctx)

	resizer := imageresize.New(&imageresize.Options{
		Cachedir: config.Cachedir,
	})

	r := mux.NewRouter()
	a := api.New(&api.Options{
		Repo:         repo,
		Player:       session,
		Notifier:     notifier,
		Search:       searcher,
		Imageresizer: resizer,
		Feed:         feed,
		Commands:     transport,
		Mediadir:     config.Mediadir,
	})
	a.RegisterHandlers(r)

	server := HttpLog(r)
	addr := fmt.Sprintf(":%d", config.Listen.Port)

	if config.Listen.TlsCert != "" && config.Listen.TlsKey != "" {
		kpr, err := NewKeypairReloader(config.Listen.TlsCert, config.Listen.TlsKey)
		if err != nil {
			log.Fatalf("error loading keypair: %v", err)
		}
		srv := &http.Server{
			Addr:    addr,
			Handler: server,
			TLSConfig: &tls.Config{
				MinVersion:     tls.VersionTLS13,
				GetCertificate: kpr.GetCertificateFunc(),
			},
		}
		log.Printf("Serving HTTPS on %s", addr)
		log.Fatal(srv.ListenAndServeTLS("", ""))
	} else {
		log.Printf("Serving HTTP on %s", addr)
		log.Fatal(http.ListenAndServe(addr, server))
	}
}

// loadPlaylist fills the session with the shared playlist.
func loadPlaylist(ctx context.Context, repo *database.Repository, session *player.Session) error {
	rows, err := repo.Tracks.ListTracks(ctx)
	if err != nil {
		return err
	}
	tracks := make([]player.Track, len(rows))
	for i, t := range rows {
		tracks[i] = player.Track{
			ID:         t.ID,
			Title:      t.Title,
			Artist:     t.Artist,
			Duration:   t.Duration,
			CoverURL:   t.CoverURL,
			Dedication: t.Dedication,
			AudioURL:   t.AudioURL,
			Favorite:   t.Favorite,
			PlayCount:  t.PlayCount,
		}
	}
	session.LoadPlaylist(tracks)
	return nil
}

// restorePlayerState resumes where the previous run left off: same
// track, position, volume and modes, but always paused.
func restorePlayerState(ctx context.Context, repo *database.Repository, session *player.Session) {
	state, err := repo.PlayerState.GetPlayerState(ctx)
	if err != nil || state == nil {
		return
	}
	session.SetVolume(state.Volume)
	session.SetShuffle(state.Shuffle)
	session.SetRepeat(state.Repeat)
	if state.TrackID != "" {
		if err := session.SelectTrack(state.TrackID); err == nil {
			session.Seek(state.Position)
		}
	}
}

type keypairReloader struct {
	certMu   sync.RWMutex
	cert     *tls.Certificate
	certPath string
	keyPath  string
}

// NewKeypairReloader reloads the TLS certificate and key from disk
// every 15 seconds. A failing reload keeps the old certificate.
func NewKeypairReloader(certPath, keyPath string) (*keypairReloader, error) {
	result := &keypairReloader{
		certPath: certPath,
		keyPath:  keyPath,
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, err
	}
	result.cert = &cert

	go func() {
		for {
			time.Sleep(15 * time.Second)
			if err := result.maybeReload(); err != nil {
				log.Printf("Keeping old TLS certificate: %v", err)
			}
		}
	}()
	return result, nil
}

func (kpr *keypairReloader) GetCertificateFunc() func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return func(clientHello *tls.ClientHelloInfo) (*tls.Certificate, error) {
		kpr.certMu.RLock()
		defer kpr.certMu.RUnlock()
		return kpr.cert, nil
	}
}

func (kpr *keypairReloader) maybeReload() error {
	newCert, err := tls.LoadX509KeyPair(kpr.certPath, kpr.keyPath)
	if err != nil {
		return err
	}
	kpr.certMu.Lock()
	defer kpr.certMu.Unlock()
	kpr.cert = &newCert
	return nil
}
