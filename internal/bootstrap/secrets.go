package bootstrap

import (
	"context"
	"fmt"

	"github.com/NielsdaWheelz/gemkit/internal/config"
	"github.com/NielsdaWheelz/gemkit/internal/dotenv"
	"github.com/NielsdaWheelz/gemkit/internal/errors"
	"github.com/NielsdaWheelz/gemkit/internal/scaffold"
)

// secrets ensures .env exists, then either stores a prompted key or, in
// placeholder mode, fills an empty file with the placeholder line.
func (r *bootstrapRun) secrets(ctx context.Context) error {
	path := r.path(scaffold.SecretsFile)
	created, err := dotenv.EnsureFile(r.b.FS, path)
	if err != nil {
		return fsError("failed to create .env", path, err)
	}
	r.result.Secrets = scaffold.StateOf(created)

	if r.opts.PromptForSecret {
		return r.promptSecret(path, created)
	}

	written, err := dotenv.WritePlaceholder(r.b.FS, path, r.cfg.SecretKey, config.SecretPlaceholder)
	if err != nil {
		return fsError("failed to write .env placeholder", path, err)
	}
	if written {
		r.result.SecretMode = SecretPlaceholder
		if !created {
			r.result.Secrets = scaffold.StateUpdated
		}
	} else {
		r.result.SecretMode = SecretUntouched
	}
	r.logState(scaffold.SecretsFile, r.result.Secrets)
	return nil
}

func (r *bootstrapRun) promptSecret(path string, created bool) error {
	if r.b.Prompter == nil {
		return errors.New(errors.ESecret, "interactive secret prompt is not available")
	}
	buf, err := r.b.Prompter.ReadSecret(fmt.Sprintf("Enter %s: ", r.cfg.SecretKey))
	if err != nil {
		return errors.Wrap(errors.ESecret, "failed to read "+r.cfg.SecretKey, err)
	}
	defer buf.Close()

	replaced, err := dotenv.UpsertKey(r.b.FS, path, r.cfg.SecretKey, buf)
	if err != nil {
		return fsError("failed to write .env", path, err)
	}
	r.result.SecretMode = SecretPrompted
	if !created {
		r.result.Secrets = scaffold.StateUpdated
	}
	r.logger.Info("secret stored", "key", r.cfg.SecretKey, "replaced", replaced)
	return nil
}
