package modem

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=modem
