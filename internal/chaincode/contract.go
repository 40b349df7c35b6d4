// Package chaincode exposes the emissions engine as a Fabric smart contract.
package chaincode

import (
	"context"

	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/engine"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/store"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/worldstate"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// EmissionsContract runs every transaction against the stub of the calling
// peer. Arguments and results keep the positional string form of the engine.
type EmissionsContract struct {
	contractapi.Contract
	engine *engine.Engine
}

func NewEmissionsContract(opts ...engine.Option) *EmissionsContract {
	return &EmissionsContract{
		engine: engine.New(opts...),
	}
}

// NewChaincode wraps the contract into a chaincode ready to be started by the peer.
func NewChaincode(opts ...engine.Option) (*contractapi.ContractChaincode, error) {
	contract := NewEmissionsContract(opts...)
	contract.Name = "emissions"
	contract.Info.Title = "Utility emissions channel"
	contract.Info.Version = "1.0.0"
	return contractapi.NewChaincode(contract)
}

func (c *EmissionsContract) invoke(ctx contractapi.TransactionContextInterface, fn string, args ...string) (string, error) {
	var state store.WorldState = worldstate.NewFabric(ctx.GetStub())
	if engine.IsQuery(fn) {
		state = store.ReadOnly(state)
	}
	payload, err := c.engine.Invoke(context.Background(), state, fn, args)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func (c *EmissionsContract) RecordEmissions(ctx contractapi.TransactionContextInterface, utilityID, partyID, fromDate, thruDate, energyUseAmount, energyUseUom, url, contentHash string) (string, error) {
	return c.invoke(ctx, engine.RecordEmissions, utilityID, partyID, fromDate, thruDate, energyUseAmount, energyUseUom, url, contentHash)
}

func (c *EmissionsContract) UpdateEmissionsRecord(ctx contractapi.TransactionContextInterface, uuid, utilityID, partyID, fromDate, thruDate, emissionsAmount, renewableEnergyUseAmount, nonrenewableEnergyUseAmount, energyUseUom, factorSource, url, contentHash, tokenID string) (string, error) {
	return c.invoke(ctx, engine.UpdateEmissionsRecord, uuid, utilityID, partyID, fromDate, thruDate, emissionsAmount, renewableEnergyUseAmount, nonrenewableEnergyUseAmount, energyUseUom, factorSource, url, contentHash, tokenID)
}

func (c *EmissionsContract) GetEmissionsData(ctx contractapi.TransactionContextInterface, uuid string) (string, error) {
	return c.invoke(ctx, engine.GetEmissionsData, uuid)
}

func (c *EmissionsContract) GetAllEmissionsData(ctx contractapi.TransactionContextInterface, utilityID, partyID string) (string, error) {
	return c.invoke(ctx, engine.GetAllEmissionsData, utilityID, partyID)
}

func (c *EmissionsContract) GetAllEmissionsDataByDateRange(ctx contractapi.TransactionContextInterface, fromDate, thruDate string) (string, error) {
	return c.invoke(ctx, engine.GetAllEmissionsDataByDateRange, fromDate, thruDate)
}

func (c *EmissionsContract) GetAllEmissionsDataByDateRangeAndParty(ctx contractapi.TransactionContextInterface, fromDate, thruDate, partyID string) (string, error) {
	return c.invoke(ctx, engine.GetAllEmissionsDataByDateRangeAndParty, fromDate, thruDate, partyID)
}

func (c *EmissionsContract) ImportUtilityFactor(ctx contractapi.TransactionContextInterface, factor string) (string, error) {
	return c.invoke(ctx, engine.ImportUtilityFactor, factor)
}

func (c *EmissionsContract) UpdateUtilityFactor(ctx contractapi.TransactionContextInterface, factor string) (string, error) {
	return c.invoke(ctx, engine.UpdateUtilityFactor, factor)
}

func (c *EmissionsContract) GetUtilityFactor(ctx contractapi.TransactionContextInterface, uuid string) (string, error) {
	return c.invoke(ctx, engine.GetUtilityFactor, uuid)
}

func (c *EmissionsContract) ImportUtilityIdentifier(ctx contractapi.TransactionContextInterface, lookup string) (string, error) {
	return c.invoke(ctx, engine.ImportUtilityIdentifier, lookup)
}

func (c *EmissionsContract) UpdateUtilityIdentifier(ctx contractapi.TransactionContextInterface, lookup string) (string, error) {
	return c.invoke(ctx, engine.UpdateUtilityIdentifier, lookup)
}

func (c *EmissionsContract) GetUtilityIdentifier(ctx contractapi.TransactionContextInterface, uuid string) (string, error) {
	return c.invoke(ctx, engine.GetUtilityIdentifier, uuid)
}

func (c *EmissionsContract) GetAllUtilityIdentifiers(ctx contractapi.TransactionContextInterface) (string, error) {
	return c.invoke(ctx, engine.GetAllUtilityIdentifiers)
}
