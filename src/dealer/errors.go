package dealer

import "errors"

var (
	ErrStorageRead           = errors.New("storage read failed")
	ErrStorageWrite          = errors.New("storage write failed")
	ErrEventFetch            = errors.New("event fetch failed")
	ErrSecretNotFound        = errors.New("secret not found")
	ErrNotConfigured         = errors.New("bot not configured")
	ErrSaveSecretsFailed     = errors.New("saving secrets failed")
	ErrCommitSecretsTxFailed = errors.New("commit secrets transaction failed")
)
