package cognito

import (
	"context"
	"errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/integration/identity"
	"testing"
)

type fakeGetter struct {
	out *cognitoidentityprovider.GetUserOutput
	err error
}

func (f *fakeGetter) GetUser(context.Context, *cognitoidentityprovider.GetUserInput, ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserOutput, error) {
	return f.out, f.err
}

func userOutput(id, role string) *cognitoidentityprovider.GetUserOutput {
	return &cognitoidentityprovider.GetUserOutput{
		Username: aws.String("ana"),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String("ana@example.com")},
			{Name: aws.String(AttrUserID), Value: aws.String(id)},
			{Name: aws.String(AttrRole), Value: aws.String(role)},
		},
	}
}

func TestResolve(t *testing.T) {
	c := New(&fakeGetter{out: userOutput("10", "client")})

	p, err := c.Resolve(context.Background(), "token")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.UserID != 10 || p.Role != entity.RoleClient || p.Username != "ana" {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestResolveMissingAttributes(t *testing.T) {
	c := New(&fakeGetter{out: &cognitoidentityprovider.GetUserOutput{Username: aws.String("ana")}})

	if _, err := c.Resolve(context.Background(), "token"); !errors.Is(err, identity.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestResolveNotAuthorized(t *testing.T) {
	c := New(&fakeGetter{err: &smithy.GenericAPIError{Code: "NotAuthorizedException", Message: "expired"}})

	if _, err := c.Resolve(context.Background(), "token"); !errors.Is(err, identity.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestResolveOutage(t *testing.T) {
	c := New(&fakeGetter{err: errors.New("connection refused")})

	_, err := c.Resolve(context.Background(), "token")
	if err == nil || errors.Is(err, identity.ErrInvalidToken) {
		t.Fatalf("err = %v, want a non-token error", err)
	}
}
