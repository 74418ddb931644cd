package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	logging "github.com/op/go-logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/urfave/negroni"

	"github.com/microscaling/regskin/catalog"
)

const (
	constHealthCheckMessage = "Ok"
	constFaviconPath        = "/static/favicon.ico"
	constStatusNotFound     = "404 page not found"
	constStatusServerError  = "500 internal server error"
)

var log = logging.MustGetLogger("rsapi")

// Config is what the HTTP layer needs to answer requests.
type Config struct {
	Browser *catalog.Browser

	// DisplayRegistry and Note are passed through to clients so that they can
	// render pull commands.
	DisplayRegistry string
	Note            string

	Address string
	Version string
}

type server struct {
	browser         *catalog.Browser
	displayRegistry string
	note            string
	version         string
}

// CatalogResponse lists every repository in the current snapshot.
type CatalogResponse struct {
	Registry     string    `json:"registry"`
	Note         string    `json:"note,omitempty"`
	Repositories []string  `json:"repositories"`
	FetchedAt    time.Time `json:"fetchedAt"`
}

// NewServer builds the HTTP server. The caller owns ListenAndServe and
// Shutdown.
func NewServer(c Config) *http.Server {
	return &http.Server{
		Addr:              c.Address,
		Handler:           newHandler(c),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func newHandler(c Config) http.Handler {
	s := &server{
		browser:         c.Browser,
		displayRegistry: c.DisplayRegistry,
		note:            c.Note,
		version:         c.Version,
	}

	n := negroni.New(negroni.NewRecovery(), negroni.NewLogger())
	n.Use(negroni.HandlerFunc(s.serverHeaderMw))
	n.UseHandler(s.muxRoutes())

	return n
}

func (s *server) muxRoutes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", handleHealthCheck).Methods("GET")
	r.Handle("/favicon.ico", http.RedirectHandler(constFaviconPath, http.StatusMovedPermanently)).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API routes. Directory paths never contain a colon, which separates the
	// repository from the tag in image routes.
	ar := mux.NewRouter().PathPrefix("/v1").Subrouter().StrictSlash(true)
	ar.HandleFunc("/catalog", s.handleGetCatalog).Methods("GET")
	ar.HandleFunc("/dirs/{path:[^:]*}", s.handleGetDirectory).Methods("GET")
	ar.HandleFunc("/dirs", s.handleGetDirectory).Methods("GET")
	ar.HandleFunc("/images/{path:[^:]+}:{tag}", s.handleGetImage).Methods("GET", "HEAD")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "HEAD"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Accept-Encoding", "Accept-Language", "Cache-Control"},
	})

	r.PathPrefix("/v1").Handler(negroni.New(
		negroni.HandlerFunc(contentTypeJSONMw),
		c,
		negroni.Wrap(ar)))

	return r
}

func (s *server) serverHeaderMw(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	w.Header().Set("Server", strings.TrimSpace("regskin "+s.version))
	next(w, r)
}

func contentTypeJSONMw(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	w.Header().Set("Content-Type", "application/json")
	next(w, r)
}

func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(constHealthCheckMessage))
}

func (s *server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	snapshot := s.browser.CurrentSnapshot()

	resp := CatalogResponse{
		Registry:     s.displayRegistry,
		Note:         s.note,
		Repositories: snapshot.Repositories(),
		FetchedAt:    snapshot.FetchedAt(),
	}

	writeJSON(w, resp)
}

func (s *server) handleGetDirectory(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	log.Debugf("Directory lookup for %#q", path)

	d, err := s.browser.LookupDirectory(r.Context(), path)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, d)
}

func (s *server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	path := strings.Trim(vars["path"], "/")
	tag := vars["tag"]
	log.Debugf("Image lookup for %s:%s", path, tag)

	image, err := s.browser.LookupImage(r.Context(), path, tag)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	writeJSON(w, image)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	bytes, err := json.Marshal(v)
	if err != nil {
		log.Errorf("Failed to encode response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Write(bytes)
}

func writeError(w http.ResponseWriter, err error) {
	if catalog.IsNotFound(err) {
		log.Debugf("Not found: %v", err)
		http.Error(w, constStatusNotFound, http.StatusNotFound)
		return
	}

	log.Errorf("Request failed: %v", err)
	http.Error(w, constStatusServerError, http.StatusInternalServerError)
}
