package commands

const (
	_etc = "/usr/local/etc/uhppoted"

	DEFAULT_CREDENTIALS = _etc + "/checkin/.google/credentials.json"

	BROWSER = "xdg-open"
)
