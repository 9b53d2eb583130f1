package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"dleon_gold/internal/domain/entities"
	"dleon_gold/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	defaultOrdersTableName       = "orders"
	ordersProviderReferenceIndex = "provider_reference-index"
)

type orderCustomerItem struct {
	FirstName string `dynamodbav:"first_name"`
	LastName  string `dynamodbav:"last_name"`
	Email     string `dynamodbav:"email"`
	Phone     string `dynamodbav:"phone"`
	Document  string `dynamodbav:"document"`
	Address   string `dynamodbav:"address"`
	City      string `dynamodbav:"city"`
}

type orderLineItem struct {
	ProductID string `dynamodbav:"product_id"`
	Name      string `dynamodbav:"name"`
	UnitPrice string `dynamodbav:"unit_price"`
	Quantity  int    `dynamodbav:"quantity"`
	Variant   string `dynamodbav:"variant,omitempty"`
}

type orderItem struct {
	ID                string            `dynamodbav:"id"`
	Customer          orderCustomerItem `dynamodbav:"customer"`
	Items             []orderLineItem   `dynamodbav:"items"`
	Subtotal          string            `dynamodbav:"subtotal"`
	Shipping          string            `dynamodbav:"shipping"`
	Total             string            `dynamodbav:"total"`
	PaymentMethod     string            `dynamodbav:"payment_method"`
	PaymentChannel    string            `dynamodbav:"payment_channel,omitempty"`
	Status            string            `dynamodbav:"status"`
	PaymentProvider   string            `dynamodbav:"payment_provider,omitempty"`
	ProviderReference string            `dynamodbav:"provider_reference,omitempty"`
	CreatedAt         string            `dynamodbav:"created_at"`
	UpdatedAt         string            `dynamodbav:"updated_at"`
}

// OrderDynamoRepository persists Order entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: provider_reference-index (PK: provider_reference)
//
// Status writes go through a conditional UpdateItem whose condition carries
// the legal source statuses; a lost race surfaces as a failed condition, not
// as a silently overwritten status. Orders are never deleted.

type OrderDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IOrderRepository = (*OrderDynamoRepository)(nil)

func NewOrderDynamoRepository(ddb *dynamodb.Client) *OrderDynamoRepository {
	return &OrderDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("ORDERS_TABLE", defaultOrdersTableName),
	}
}

func (r *OrderDynamoRepository) Create(ctx context.Context, o entities.Order) (entities.Order, error) {
	it := toOrderItem(o)
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return entities.Order{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return entities.Order{}, err
	}
	return o, nil
}

func (r *OrderDynamoRepository) GetByID(ctx context.Context, id string) (entities.Order, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Order{}, err
	}
	if len(out.Item) == 0 {
		return entities.Order{}, nil
	}

	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Order{}, err
	}
	return fromOrderItem(it), nil
}

func (r *OrderDynamoRepository) GetByProviderReference(ctx context.Context, ref string) (entities.Order, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(ordersProviderReferenceIndex),
		KeyConditionExpression: aws.String("provider_reference = :ref"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ref": &types.AttributeValueMemberS{Value: ref},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return entities.Order{}, err
	}
	if len(out.Items) == 0 {
		return entities.Order{}, nil
	}

	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return entities.Order{}, err
	}
	return fromOrderItem(it), nil
}

// UpdateStatus is the compare-and-swap the whole state machine relies on: the
// write lands only when the stored status is still one of `from`. A failed
// condition (raced webhook, replay, unknown id) returns a zero-value Order
// with a nil error; classification happens one layer up.
func (r *OrderDynamoRepository) UpdateStatus(ctx context.Context, id string, from []entities.OrderStatus, to entities.OrderStatus, provider, providerReference string) (entities.Order, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	updateExpr := "SET #status = :status, #updated_at = :updated_at"
	values := map[string]types.AttributeValue{
		":status":     &types.AttributeValueMemberS{Value: string(to)},
		":updated_at": &types.AttributeValueMemberS{Value: now},
	}
	names := map[string]string{
		"#id":         "id",
		"#status":     "status",
		"#updated_at": "updated_at",
	}
	if provider != "" {
		updateExpr += ", #payment_provider = :payment_provider"
		values[":payment_provider"] = &types.AttributeValueMemberS{Value: provider}
		names["#payment_provider"] = "payment_provider"
	}
	if providerReference != "" {
		updateExpr += ", #provider_reference = :provider_reference"
		values[":provider_reference"] = &types.AttributeValueMemberS{Value: providerReference}
		names["#provider_reference"] = "provider_reference"
	}

	condition := "attribute_exists(#id) AND #status IN ("
	for i, s := range from {
		placeholder := fmt.Sprintf(":from%d", i)
		if i > 0 {
			condition += ", "
		}
		condition += placeholder
		values[placeholder] = &types.AttributeValueMemberS{Value: string(s)}
	}
	condition += ")"

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression:       aws.String(condition),
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeValues: values,
		ExpressionAttributeNames:  names,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return entities.Order{}, nil
		}
		return entities.Order{}, err
	}
	if len(out.Attributes) == 0 {
		return entities.Order{}, nil
	}

	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Order{}, err
	}
	return fromOrderItem(it), nil
}

func toOrderItem(o entities.Order) orderItem {
	items := make([]orderLineItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderLineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: floatToString(it.UnitPrice),
			Quantity:  it.Quantity,
			Variant:   it.Variant,
		})
	}
	return orderItem{
		ID: o.ID,
		Customer: orderCustomerItem{
			FirstName: o.Customer.FirstName,
			LastName:  o.Customer.LastName,
			Email:     o.Customer.Email,
			Phone:     o.Customer.Phone,
			Document:  o.Customer.Document,
			Address:   o.Customer.Address,
			City:      o.Customer.City,
		},
		Items:             items,
		Subtotal:          floatToString(o.Subtotal),
		Shipping:          floatToString(o.Shipping),
		Total:             floatToString(o.Total),
		PaymentMethod:     string(o.PaymentMethod),
		PaymentChannel:    o.PaymentChannel,
		Status:            string(o.Status),
		PaymentProvider:   o.PaymentProvider,
		ProviderReference: o.ProviderReference,
		CreatedAt:         o.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:         o.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromOrderItem(it orderItem) entities.Order {
	items := make([]entities.OrderItem, 0, len(it.Items))
	for _, li := range it.Items {
		unitPrice, _ := strconv.ParseFloat(li.UnitPrice, 64)
		items = append(items, entities.OrderItem{
			ProductID: li.ProductID,
			Name:      li.Name,
			UnitPrice: unitPrice,
			Quantity:  li.Quantity,
			Variant:   li.Variant,
		})
	}
	subtotal, _ := strconv.ParseFloat(it.Subtotal, 64)
	shipping, _ := strconv.ParseFloat(it.Shipping, 64)
	total, _ := strconv.ParseFloat(it.Total, 64)
	createdAt, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, it.UpdatedAt)
	return entities.Order{
		ID: it.ID,
		Customer: entities.Customer{
			FirstName: it.Customer.FirstName,
			LastName:  it.Customer.LastName,
			Email:     it.Customer.Email,
			Phone:     it.Customer.Phone,
			Document:  it.Customer.Document,
			Address:   it.Customer.Address,
			City:      it.Customer.City,
		},
		Items:             items,
		Subtotal:          subtotal,
		Shipping:          shipping,
		Total:             total,
		PaymentMethod:     entities.PaymentMethod(it.PaymentMethod),
		PaymentChannel:    it.PaymentChannel,
		Status:            entities.OrderStatus(it.Status),
		PaymentProvider:   it.PaymentProvider,
		ProviderReference: it.ProviderReference,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}
}

func floatToString(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
