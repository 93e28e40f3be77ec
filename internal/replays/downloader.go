package replays

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Fetcher grava o corpo de uma URL em w
type Fetcher interface {
	Download(ctx context.Context, rawURL string, w io.Writer) (int64, error)
}

// Downloader baixa replays para Dir, pulando arquivos que já existem.
// A retomada é por presença do arquivo, sem validar conteúdo.
type Downloader struct {
	API   Fetcher
	Log   *zap.Logger
	Dir   string
	Delay time.Duration
	Sleep SleepFunc

	OnSaved   func(bytes int64) // métricas
	OnSkipped func()            // métricas
	OnFailed  func()            // métricas
}

// FileName deriva o nome local do último segmento da URL
func FileName(rawURL string) (string, error) {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	name := p
	if i := strings.LastIndex(p, "/"); i >= 0 {
		name = p[i+1:]
	}
	name = path.Clean(name)
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("no file name in url %q", rawURL)
	}
	return name, nil
}

// Fetch baixa um replay. skipped=true quando o arquivo já existia (nenhuma transferência).
// O corpo vai para "<nome>.part" e só é renomeado quando completo.
func (d *Downloader) Fetch(ctx context.Context, ref Ref) (dst string, skipped bool, err error) {
	name, err := FileName(ref.URL)
	if err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", false, fmt.Errorf("create out dir: %w", err)
	}

	dst = filepath.Join(d.Dir, name)
	if info, err := os.Stat(dst); err == nil && info.Mode().IsRegular() {
		return dst, true, nil
	}

	tmp := dst + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", false, fmt.Errorf("create %s: %w", tmp, err)
	}

	n, dlErr := d.API.Download(ctx, ref.URL, f)
	closeErr := f.Close()
	if dlErr == nil && closeErr != nil {
		dlErr = fmt.Errorf("close %s: %w", tmp, closeErr)
	}
	if dlErr != nil {
		_ = os.Remove(tmp)
		return "", false, dlErr
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return "", false, fmt.Errorf("rename %s: %w", tmp, err)
	}

	if d.OnSaved != nil {
		d.OnSaved(n)
	}
	return dst, false, nil
}

// DownloadAll baixa as refs em sequência; uma falha nunca aborta o lote.
// Retorna quantos arquivos ficaram disponíveis em Dir (baixados ou já existentes).
func (d *Downloader) DownloadAll(ctx context.Context, refs []Ref) int {
	sleep := d.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	ok := 0
	for _, ref := range refs {
		if err := sleep(ctx, d.Delay); err != nil {
			d.Log.Warn("download interrupted", zap.Error(err))
			break
		}

		dst, skipped, err := d.Fetch(ctx, ref)
		if err != nil {
			d.Log.Error("download failed",
				zap.String("url", ref.URL),
				zap.Int64("match_id", ref.MatchID),
				zap.Error(err),
			)
			if d.OnFailed != nil {
				d.OnFailed()
			}
			continue
		}

		if skipped {
			d.Log.Info("replay already present", zap.String("path", dst))
			if d.OnSkipped != nil {
				d.OnSkipped()
			}
		} else {
			d.Log.Info("replay saved", zap.String("path", dst))
		}
		ok++
	}
	return ok
}
