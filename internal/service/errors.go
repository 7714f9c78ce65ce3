package service

import "errors"

// ErrInvalidInput 是所有输入校验错误的哨兵值，handler 将其映射为 400。
var ErrInvalidInput = errors.New("invalid input")

// inputError 携带面向用户的提示信息，同时满足 errors.Is(err, ErrInvalidInput)。
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func (e *inputError) Is(target error) bool { return target == ErrInvalidInput }

func invalidInput(msg string) error {
	return &inputError{msg: msg}
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")

	ErrDatasetNotFound    = errors.New("dataset not found")
	ErrNoFilesToDownload  = errors.New("No se encontraron archivos disponibles para descargar")
	ErrFileNotFound       = errors.New("file not found")
	ErrDOINotFound        = errors.New("DOI not found")
	ErrDepositionNotFound = errors.New("Deposition not found")

	ErrNoValidFile         = invalidInput("No valid file")
	ErrInvalidZip          = invalidInput("Invalid zip file")
	ErrNoUVLInZip          = invalidInput("No .uvl files found in the zip")
	ErrGitHubURLRequired   = invalidInput("GitHub URL is required")
	ErrInvalidGitHubURL    = invalidInput("Invalid GitHub URL")
	ErrUnsupportedFileType = invalidInput("Unsupported file type")
	ErrFileTooLarge        = invalidInput("File too large")
	ErrGitHubTimeout       = errors.New("The request to GitHub timed out")
	ErrGitHubFetch         = errors.New("Error uploading file from GitHub")
	ErrStagedFileNotFound  = errors.New("Error: File not found")

	ErrCommunityNotFound  = errors.New("Community not found")
	ErrCommunityNameTaken = invalidInput("A community with this name already exists.")
	ErrAlreadyMember      = invalidInput("User is already a member of this community.")
	ErrRequestPending     = invalidInput("Request to join the community is already pending.")
	ErrNotMember          = invalidInput("User is not a member of this community.")
	ErrOwnerCannotLeave   = errors.New("Owners cannot leave the community.")
	ErrForbidden          = errors.New("You do not have permission to perform this action.")
	ErrInvalidAction      = invalidInput("Invalid action.")
	ErrRequestNotFound    = errors.New("Request not found.")
)
