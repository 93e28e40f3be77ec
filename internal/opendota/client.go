package opendota

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"
)

const (
	DefaultBaseURL   = "https://api.opendota.com/api"
	DefaultUserAgent = "CnDotaPlan/1.0"
	DefaultTimeout   = 60 * time.Second

	// tamanho dos blocos ao gravar o replay em disco
	chunkSize = 8 * 1024
)

// APIError representa uma resposta fora de 2xx
type APIError struct {
	URL        string
	StatusCode int
	Body       string // primeiros 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// Client fala com a API pública da OpenDota. Sem retry e sem backoff:
// o espaçamento entre chamadas é responsabilidade de quem chama.
type Client struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client
}

// Option configura o Client
type Option func(*Client)

// WithTimeout define o timeout de cada chamada (default 60s)
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTP.Timeout = d }
}

// WithHTTPClient troca o http.Client (testes)
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTP = h }
}

func New(baseURL, userAgent string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	c := &Client{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		HTTP:      &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetMatch busca os detalhes de uma partida
func (c *Client) GetMatch(ctx context.Context, matchID int64) (*Match, error) {
	var m Match
	if err := c.getJSON(ctx, "/matches/"+strconv.FormatInt(matchID, 10), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetProMatchIDs retorna os match_id das últimas partidas profissionais, na ordem da API
func (c *Client) GetProMatchIDs(ctx context.Context, limit int) ([]int64, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var list []ProMatch
	if err := c.getJSON(ctx, "/proMatches", q, &list); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(list))
	for _, m := range list {
		ids = append(ids, m.MatchID)
	}
	return ids, nil
}

// GetReplayURL busca a partida e devolve replay_url; ok=false se não houver
func (c *Client) GetReplayURL(ctx context.Context, matchID int64) (string, bool, error) {
	m, err := c.GetMatch(ctx, matchID)
	if err != nil {
		return "", false, err
	}
	u, ok := m.Replay()
	return u, ok, nil
}

// GetTeams retorna a lista de times como veio da OpenDota
func (c *Client) GetTeams(ctx context.Context) ([]json.RawMessage, error) {
	var list []json.RawMessage
	if err := c.getJSON(ctx, "/teams", nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []json.RawMessage{}
	}
	return list, nil
}

// GetTeam retorna os detalhes de um time
func (c *Client) GetTeam(ctx context.Context, teamID int64) (json.RawMessage, error) {
	var team json.RawMessage
	if err := c.getJSON(ctx, "/teams/"+strconv.FormatInt(teamID, 10), nil, &team); err != nil {
		return nil, err
	}
	return team, nil
}

// GetTeamMatches retorna as partidas recentes do time.
// A OpenDota não pagina esse endpoint: limit > 0 corta a lista depois de decodificar.
func (c *Client) GetTeamMatches(ctx context.Context, teamID int64, limit int) ([]json.RawMessage, error) {
	var list []json.RawMessage
	if err := c.getJSON(ctx, "/teams/"+strconv.FormatInt(teamID, 10)+"/matches", nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []json.RawMessage{}
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// ErrIdleTimeout indica que o servidor parou de mandar dados por mais que o timeout do Client
var ErrIdleTimeout = errors.New("download idle timeout")

// Download faz streaming do corpo de rawURL para w em blocos fixos.
// Não há prazo total; a transferência é abortada quando fica HTTP.Timeout sem receber bytes.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	idle := c.HTTP.Timeout
	wd := newWatchdog(idle, cancel)
	defer wd.stop()

	res, err := c.do(ctx, c.streamClient(), rawURL)
	if err != nil {
		var ne net.Error
		if wd.expired() || (errors.As(err, &ne) && ne.Timeout()) {
			return 0, fmt.Errorf("GET %s: no response in %s: %w", rawURL, idle, ErrIdleTimeout)
		}
		return 0, err
	}
	defer res.Body.Close()

	bw := bufio.NewWriterSize(w, chunkSize)
	n, err := io.CopyBuffer(bw, wd.wrap(res.Body), make([]byte, chunkSize))
	if err != nil {
		if wd.expired() {
			return n, fmt.Errorf("copy body: no data in %s: %w", idle, ErrIdleTimeout)
		}
		return n, fmt.Errorf("copy body: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("flush: %w", err)
	}
	return n, nil
}

// watchdog cancela a requisição quando passa d sem progresso; d <= 0 desliga
type watchdog struct {
	d     time.Duration
	t     *time.Timer
	fired atomic.Bool
}

func newWatchdog(d time.Duration, cancel context.CancelFunc) *watchdog {
	wd := &watchdog{d: d}
	if d > 0 {
		wd.t = time.AfterFunc(d, func() {
			wd.fired.Store(true)
			cancel()
		})
	}
	return wd
}

func (wd *watchdog) wrap(r io.Reader) io.Reader {
	return &idleReader{r: r, wd: wd}
}

func (wd *watchdog) touch() {
	if wd.t != nil && !wd.fired.Load() {
		wd.t.Reset(wd.d)
	}
}

func (wd *watchdog) expired() bool { return wd.fired.Load() }

func (wd *watchdog) stop() {
	if wd.t != nil {
		wd.t.Stop()
	}
}

type idleReader struct {
	r  io.Reader
	wd *watchdog
}

func (ir *idleReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if n > 0 {
		ir.wd.touch()
	}
	return n, err
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	full := c.BaseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	res, err := c.do(ctx, c.HTTP, full)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", full, err)
	}
	return nil
}

// do executa o GET e converte status fora de 2xx em *APIError.
// Em caso de sucesso o chamador fecha o Body.
func (c *Client) do(ctx context.Context, hc *http.Client, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	res, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		defer res.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, &APIError{URL: rawURL, StatusCode: res.StatusCode, Body: string(b)}
	}
	return res, nil
}

// streamClient não limita o tempo total da transferência: um replay passa
// fácil de 100MB. O timeout vale até os cabeçalhos e, depois, entre leituras (watchdog).
func (c *Client) streamClient() *http.Client {
	var tr http.RoundTripper
	switch t := c.HTTP.Transport.(type) {
	case nil:
		tr = withHeaderTimeout(http.DefaultTransport.(*http.Transport), c.HTTP.Timeout)
	case *http.Transport:
		tr = withHeaderTimeout(t, c.HTTP.Timeout)
	default:
		tr = t
	}
	return &http.Client{
		Transport:     tr,
		CheckRedirect: c.HTTP.CheckRedirect,
		Jar:           c.HTTP.Jar,
	}
}

func withHeaderTimeout(t *http.Transport, d time.Duration) *http.Transport {
	if t.ResponseHeaderTimeout != 0 || d <= 0 {
		return t
	}
	t = t.Clone()
	t.ResponseHeaderTimeout = d
	return t
}
