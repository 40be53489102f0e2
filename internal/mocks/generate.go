package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/user --output domain/user --outpkg usermock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/team --output domain/team --outpkg teammock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/fixture --output domain/fixture --outpkg fixturemock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/prediction --output domain/prediction --outpkg predictionmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/league --output domain/league --outpkg leaguemock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/ranking --output domain/ranking --outpkg rankingmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name ProductRepository --dir ../domain/shop --output domain/shop --outpkg shopmock --filename product_repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name OrderRepository --dir ../domain/shop --output domain/shop --outpkg shopmock --filename order_repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name PaymentRepository --dir ../domain/shop --output domain/shop --outpkg shopmock --filename payment_repository_mock.go
