package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Notifier --dir ../domain/draft --output domain/draft --outpkg draftmock --filename notifier_mock.go
